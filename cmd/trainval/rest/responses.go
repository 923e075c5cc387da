package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	cerr "github.com/opst/trainval/cmd/trainval/errors"
	apierr "github.com/opst/trainval/pkg/api/types/errors"
)

// MessageFor is a title of error messages for each range of status codes.
type MessageFor map[StatusCodeRange]string

func messagesFor(action string, resp *http.Response) MessageFor {
	return MessageFor{
		Status4xx: fmt.Sprintf("%s is rejected by server (status code = %d)", action, resp.StatusCode),
		Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
	}
}

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: title of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is not 2xx
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	if StatusCodeRangeOf(resp) == Status2xx {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			message := fmt.Sprintf("unexpected response: %s (status code = %d)", err.Error(), resp.StatusCode)
			return cerr.New(message, cerr.WithCause(err))
		}
		return nil
	}
	return errorFromResponse(resp, messageFor)
}

// unmarshalResponseDiscardingPayload checks status code and drops the body.
func unmarshalResponseDiscardingPayload(resp *http.Response, messageFor MessageFor) error {
	if StatusCodeRangeOf(resp) == Status2xx {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return errorFromResponse(resp, messageFor)
}

func errorFromResponse(resp *http.Response, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp)
	message, ok := messageFor[scr]
	if !ok {
		message = fmt.Sprintf("%s (status code = %d)", scr, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return cerr.New(
			fmt.Sprintf("%s\ncannot read server message: %s", message, err.Error()),
			cerr.WithCause(err),
		)
	}

	if em, ok := parseErrorMessage(body); ok {
		return cerr.New(message, cerr.WithMessage(em.String()), cerr.WithCause(em))
	}
	return cerr.New(message, cerr.WithMessage(string(body)))
}

func parseErrorMessage(body []byte) (apierr.ErrorMessage, bool) {
	em := apierr.ErrorMessage{}
	if err := json.Unmarshal(body, &em); err == nil {
		return em, true
	}

	// {"message": {...}} envelope
	wrapped := struct {
		Message *apierr.ErrorMessage `json:"message"`
	}{}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Message != nil {
		return *wrapped.Message, true
	}
	return apierr.ErrorMessage{}, false
}
