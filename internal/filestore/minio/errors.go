package minio

import (
	"context"
	"errors"
	"net/http"

	miniogo "github.com/minio/minio-go/v7"

	"github.com/koustreak/catalogts/internal/errs"
)

// S3 error codes win over the HTTP status when both are present.
var (
	codeKinds = map[string]errs.ErrKind{
		"NoSuchBucket":          errs.ErrKindNotFound,
		"NoSuchKey":             errs.ErrKindNotFound,
		"AccessDenied":          errs.ErrKindPermissionDenied,
		"InvalidAccessKeyId":    errs.ErrKindPermissionDenied,
		"SignatureDoesNotMatch": errs.ErrKindPermissionDenied,
		"InvalidBucketName":     errs.ErrKindInvalidInput,
		"InvalidObjectName":     errs.ErrKindInvalidInput,
		"KeyTooLongError":       errs.ErrKindInvalidInput,
		"RequestTimeout":        errs.ErrKindTimeout,
		"SlowDown":              errs.ErrKindTimeout,
	}
	statusKinds = map[int]errs.ErrKind{
		http.StatusNotFound:     errs.ErrKindNotFound,
		http.StatusForbidden:    errs.ErrKindPermissionDenied,
		http.StatusUnauthorized: errs.ErrKindPermissionDenied,
		http.StatusBadRequest:   errs.ErrKindInvalidInput,
	}
)

func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	resp := miniogo.ToErrorResponse(err)
	if kind, ok := codeKinds[resp.Code]; ok {
		return errs.Wrap(kind, msg, err)
	}
	if kind, ok := statusKinds[resp.StatusCode]; ok {
		return errs.Wrap(kind, msg, err)
	}
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
