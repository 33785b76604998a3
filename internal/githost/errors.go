package githost

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/google/go-github/v74/github"

	"linecount/internal/linecount"
)

// classify maps transport and API errors onto linecount error kinds.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return linecount.Errorf(linecount.KindTimeout, err, "Request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return linecount.Errorf(linecount.KindTimeout, err, "Request timed out")
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return linecount.Errorf(linecount.KindRateLimited, err, "Rate limit exceeded")
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return linecount.Errorf(linecount.KindRateLimited, err, "Rate limit exceeded")
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return linecount.Errorf(linecount.KindUnauthorized, err, "Invalid token")
		case http.StatusNotFound, http.StatusConflict:
			return linecount.Errorf(linecount.KindNotFound, err, "Repo not found")
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return linecount.Errorf(linecount.KindMalformedResponse, err, "Invalid response")
	}
	return linecount.Errorf(linecount.KindInternal, err, "%s failed", op)
}
