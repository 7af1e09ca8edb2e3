package db

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
type Operation func() error

// IsRetryableError is a function that decides whether an error is worth another attempt.
type IsRetryableError func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation with default retry settings for transient write errors.
// It uses DefaultMaxRetries and IsTransientWriteError.
func Try(op Operation) error {
	return WithRetries(op, DefaultMaxRetries, IsTransientWriteError)
}

// WithRetries executes an operation with a retry mechanism for retryable errors.
// It attempts the operation up to maxRetries times beyond the initial attempt,
// with a small incremental backoff between attempts.
func WithRetries(op Operation, maxRetries int, isRetryable IsRetryableError) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}

		if attempt == maxRetries {
			break
		}

		if isRetryable(err) {
			time.Sleep(time.Duration(50*(attempt+1)) * time.Millisecond)
		} else {
			return err
		}
	}
	return err
}

// IsTransientWriteError reports whether an error is a transient transaction
// error or a duplicate key error. Duplicate keys are retryable because inserts
// regenerate their document ID on each attempt; transient transaction errors
// are retryable because the server asks for a replay of the whole transaction.
func IsTransientWriteError(err error) bool {
	if IsMongoDuplicateKeyError(err) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	// Also check for BulkWriteException, which can contain duplicate key errors
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return true
			}
		}
	}
	return false
}
