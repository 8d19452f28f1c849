// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package knack

import (
	"fmt"
)

// HTTPError is a non-timeout failure of an API request. It is never retried.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string // response body, for diagnostics
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s",
		e.Method, e.URL, e.StatusCode, e.Body)
}

// TimeoutError is returned when a page request timed out on every attempt.
type TimeoutError struct {
	URL      string
	Page     int
	Attempts int
	Err      error // the last timeout error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("page %d of %s timed out after %d attempts: %s",
		e.Page, e.URL, e.Attempts, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

type timeouter interface {
	Timeout() bool
}

// isTimeout checks whether err is a network or client timeout, as reported by
// *url.Error and the body reader of http.Client.
func isTimeout(err error) bool {
	t, ok := err.(timeouter)
	return ok && t.Timeout()
}
