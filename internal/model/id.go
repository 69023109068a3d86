package model

import "github.com/google/uuid"

// NewID は新しいエンティティIDを生成する。
func NewID() string {
	return uuid.New().String()
}

// IsValidID はsがエンティティIDとして解釈可能なUUIDかどうかを返す。
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
