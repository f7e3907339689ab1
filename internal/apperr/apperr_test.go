package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestError_NotFoundIsRequestFailed(t *testing.T) {
	err := fmt.Errorf("get article: %w", &RequestError{Op: "GetArticle", Method: "GET", Path: "/api/articles/7", Status: 404})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.NotErrorIs(t, err, ErrNetworkUnavailable)
	assert.Equal(t, 404, Status(err))
}

func TestRequestError_ServerErrorIsNotNotFound(t *testing.T) {
	err := &RequestError{Op: "CreateArticle", Status: 500, Message: "boom"}

	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "the server rejected the request (500): boom", UserMessage(err))
}

func TestNetworkError_Unwraps(t *testing.T) {
	err := &NetworkError{Op: "ListArticles", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, Status(err))
}

func TestEncodeError_IsNotNetwork(t *testing.T) {
	err := fmt.Errorf("create comment: %w", &EncodeError{Op: "CreateComment", Err: errors.New("bad id")})

	assert.ErrorIs(t, err, ErrEncoding)
	assert.NotErrorIs(t, err, ErrNetworkUnavailable)
	assert.NotErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, "the request could not be built", UserMessage(err))
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"content":     "must be provided",
		"author_name": "must be provided",
	}}

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "author_name must be provided; content must be provided", UserMessage(err))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "it no longer exists", UserMessage(&RequestError{Status: 404}))
	assert.Equal(t, "the server could not be reached", UserMessage(&NetworkError{Err: errors.New("refused")}))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}
