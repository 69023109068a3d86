package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker はセッション掃除ワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandWorker, CommandServe, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}

// MigrateDirection はmigrateサブコマンドの操作。
type MigrateDirection string

const (
	MigrateUp      MigrateDirection = "up"
	MigrateDown    MigrateDirection = "down"
	MigrateVersion MigrateDirection = "version"
)

// MigrateOptions はmigrateサブコマンドの引数。
type MigrateOptions struct {
	Direction MigrateDirection
	Steps     int // downで戻す数
}

// ParseMigrateArgs は "migrate" に続く引数を解析する。
//
//	migrate              未適用をすべて適用
//	migrate up           同上
//	migrate down [N]     直近N件（省略時1件）を戻す
//	migrate version      現在のスキーマバージョンを表示
func ParseMigrateArgs(args []string) (MigrateOptions, error) {
	if len(args) == 0 {
		return MigrateOptions{Direction: MigrateUp}, nil
	}

	switch MigrateDirection(args[0]) {
	case MigrateUp:
		if len(args) > 1 {
			return MigrateOptions{}, fmt.Errorf("migrate up takes no arguments: %v", args[1:])
		}
		return MigrateOptions{Direction: MigrateUp}, nil
	case MigrateVersion:
		return MigrateOptions{Direction: MigrateVersion}, nil
	case MigrateDown:
		opts := MigrateOptions{Direction: MigrateDown, Steps: 1}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return MigrateOptions{}, fmt.Errorf("invalid rollback steps: %q", args[1])
			}
			opts.Steps = n
		}
		return opts, nil
	default:
		return MigrateOptions{}, fmt.Errorf("unknown migrate direction: %q", args[0])
	}
}
