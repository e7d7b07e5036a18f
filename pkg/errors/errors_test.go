// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	noaherr "github.com/chakany/noah/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := noaherr.New(
		noaherr.CodeStoreQueryDatabaseFailure,
		"query failed",
		noaherr.FieldEventID("e1"),
		noaherr.Field("table", "events"),
	)

	require.Error(t, err)
	assert.Equal(t, noaherr.CodeStoreQueryDatabaseFailure, noaherr.CodeOf(err))
	assert.True(t, noaherr.HasCode(err, noaherr.CodeStoreQueryDatabaseFailure))

	fields := noaherr.FieldsOf(err)
	assert.Equal(t, "e1", fields["event_id"])
	assert.Equal(t, "events", fields["table"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := noaherr.Errorf(noaherr.CodeStoreQueryDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, noaherr.CodeStoreQueryDatabaseFailure, noaherr.CodeOf(err))
}

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("record missing")
	err := noaherr.Wrap(root, noaherr.CodeStoreEventNotFound, "loading event", noaherr.FieldEventID("e42"))

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, noaherr.CodeStoreEventNotFound, noaherr.CodeOf(err))
	assert.True(t, noaherr.IsNotFound(err))
	assert.Equal(t, "e42", noaherr.FieldsOf(err)["event_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, noaherr.Wrap(nil, noaherr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, noaherr.Wrapf(nil, noaherr.CodeServerInternalFailure, "ignored %s", "arg"))
}

func TestReasonPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"conflict", noaherr.New(noaherr.CodeStoreEventConflict, "dup"), noaherr.IsConflict, true},
		{"not found", noaherr.New(noaherr.CodeStoreEventNotFound, "missing"), noaherr.IsNotFound, true},
		{"invalid format", noaherr.New(noaherr.CodeIngestLineInvalidFormat, "bad line"), noaherr.IsInvalidInput, true},
		{"upstream", noaherr.New(noaherr.CodeEmbeddingUpstreamFailure, "503"), noaherr.IsUpstreamFailure, true},
		{"embedding response", noaherr.New(noaherr.CodeEmbeddingResponseInvalid, "empty"), noaherr.IsEmbeddingFailure, true},
		{"store is not embedding", noaherr.New(noaherr.CodeStoreQueryDatabaseFailure, "boom"), noaherr.IsEmbeddingFailure, false},
		{"nil", nil, noaherr.IsConflict, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", noaherr.New(noaherr.CodeStoreEventNotFound, "missing"), http.StatusNotFound},
		{"conflict", noaherr.New(noaherr.CodeStoreEventConflict, "dup"), http.StatusConflict},
		{"invalid", noaherr.New(noaherr.CodeServerRequestInvalid, "bad"), http.StatusBadRequest},
		{"embedding upstream", noaherr.New(noaherr.CodeEmbeddingUpstreamFailure, "503"), http.StatusBadGateway},
		{"embedding response", noaherr.New(noaherr.CodeEmbeddingResponseInvalid, "empty vector"), http.StatusBadGateway},
		{"store failure", noaherr.New(noaherr.CodeStoreQueryDatabaseFailure, "boom"), http.StatusInternalServerError},
		{"plain error", stderrors.New("anonymous"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, noaherr.HTTPStatus(tt.err))
		})
	}
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, noaherr.Code(""), noaherr.CodeOf(stderrors.New("plain")))
	assert.Equal(t, noaherr.Code(""), noaherr.CodeOf(nil))
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	err := noaherr.Join(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
}
