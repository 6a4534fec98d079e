package models

import "errors"

var (
	ErrRedisConnection = errors.New("redis connection error")
	ErrRedisGet        = errors.New("redis get error")
	ErrRedisSet        = errors.New("redis set error")
	ErrRedisDelete     = errors.New("redis delete error")
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidEvent    = errors.New("invalid event payload")
	ErrMissingIdentity = errors.New("userId or name missing")
	ErrMissingPosition = errors.New("latitude or longitude missing")
)

var (
	ErrDatabaseConnection = errors.New("database connection error")
	ErrDatabaseQuery      = errors.New("database query error")
	ErrDatabaseInsert     = errors.New("database insert error")
	ErrDatabaseUpdate     = errors.New("database update error")
	ErrRecordNotFound     = errors.New("record not found")
)

var (
	ErrQueuePublish = errors.New("queue publish error")
)
