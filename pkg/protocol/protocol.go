// Package protocol holds the HTTP vocabulary the stub server speaks: methods,
// status codes with their reason phrases, request-line parsing, and the raw
// response serialization format.
//
// The wire format is deliberately minimal. Responses carry no Content-Length
// and no transfer encoding; clients learn where a body ends from connection
// behavior (close after body, or stream indefinitely).
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadRequestLine is returned when an inbound request line cannot be split
// into a method and a target.
var ErrBadRequestLine = errors.New("malformed request line")

// Method is an HTTP request method.
type Method string

// Supported methods.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// ErrUnknownMethod is returned by ParseMethod for methods outside the
// supported set.
var ErrUnknownMethod = errors.New("unknown HTTP method")

// ParseMethod maps a method string (case-insensitive) to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToUpper(s)) {
	case MethodGet:
		return MethodGet, nil
	case MethodPost:
		return MethodPost, nil
	case MethodPut:
		return MethodPut, nil
	case MethodDelete:
		return MethodDelete, nil
	case MethodPatch:
		return MethodPatch, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Status is an HTTP status code.
type Status int

// Status codes.
const (
	StatusContinue                      Status = 100
	StatusSwitchingProtocols            Status = 101
	StatusProcessing                    Status = 102
	StatusOK                            Status = 200
	StatusCreated                       Status = 201
	StatusAccepted                      Status = 202
	StatusNonAuthoritativeInformation   Status = 203
	StatusNoContent                     Status = 204
	StatusResetContent                  Status = 205
	StatusPartialContent                Status = 206
	StatusMultiStatus                   Status = 207
	StatusMultipleChoices               Status = 300
	StatusMovedPermanently              Status = 301
	StatusFound                         Status = 302
	StatusSeeOther                      Status = 303
	StatusNotModified                   Status = 304
	StatusUseProxy                      Status = 305
	StatusTemporaryRedirect             Status = 307
	StatusPermanentRedirect             Status = 308
	StatusBadRequest                    Status = 400
	StatusUnauthorized                  Status = 401
	StatusPaymentRequired               Status = 402
	StatusForbidden                     Status = 403
	StatusNotFound                      Status = 404
	StatusMethodNotAllowed              Status = 405
	StatusNotAcceptable                 Status = 406
	StatusProxyAuthenticationRequired   Status = 407
	StatusRequestTimeout                Status = 408
	StatusConflict                      Status = 409
	StatusGone                          Status = 410
	StatusLengthRequired                Status = 411
	StatusPreconditionFailed            Status = 412
	StatusPayloadTooLarge               Status = 413
	StatusURITooLong                    Status = 414
	StatusUnsupportedMediaType          Status = 415
	StatusRangeNotSatisfiable           Status = 416
	StatusExpectationFailed             Status = 417
	StatusImATeapot                     Status = 418
	StatusUnprocessableEntity           Status = 422
	StatusLocked                        Status = 423
	StatusFailedDependency              Status = 424
	StatusUpgradeRequired               Status = 426
	StatusPreconditionRequired          Status = 428
	StatusTooManyRequests               Status = 429
	StatusRequestHeaderFieldsTooLarge   Status = 431
	StatusInternalServerError           Status = 500
	StatusNotImplemented                Status = 501
	StatusBadGateway                    Status = 502
	StatusServiceUnavailable            Status = 503
	StatusGatewayTimeout                Status = 504
	StatusHTTPVersionNotSupported       Status = 505
	StatusInsufficientStorage           Status = 507
	StatusNetworkAuthenticationRequired Status = 511
)

// reasons holds the reason phrases as the stub server emits them.
// Note the casing ("Ok", "Http Version Not Supported") differs from
// net/http.StatusText and is part of the wire contract tests assert on.
var reasons = map[Status]string{
	StatusContinue:                      "Continue",
	StatusSwitchingProtocols:            "Switching Protocols",
	StatusProcessing:                    "Processing",
	StatusOK:                            "Ok",
	StatusCreated:                       "Created",
	StatusAccepted:                      "Accepted",
	StatusNonAuthoritativeInformation:   "Non Authoritative Information",
	StatusNoContent:                     "No Content",
	StatusResetContent:                  "Reset Content",
	StatusPartialContent:                "Partial Content",
	StatusMultiStatus:                   "Multi Status",
	StatusMultipleChoices:               "Multiple Choices",
	StatusMovedPermanently:              "Moved Permanently",
	StatusFound:                         "Found",
	StatusSeeOther:                      "See Other",
	StatusNotModified:                   "Not Modified",
	StatusUseProxy:                      "Use Proxy",
	StatusTemporaryRedirect:             "Temporary Redirect",
	StatusPermanentRedirect:             "Permanent Redirect",
	StatusBadRequest:                    "Bad Request",
	StatusUnauthorized:                  "Unauthorized",
	StatusPaymentRequired:               "Payment Required",
	StatusForbidden:                     "Forbidden",
	StatusNotFound:                      "Not Found",
	StatusMethodNotAllowed:              "Method Not Allowed",
	StatusNotAcceptable:                 "Not Acceptable",
	StatusProxyAuthenticationRequired:   "Proxy Authentication Required",
	StatusRequestTimeout:                "Request Timeout",
	StatusConflict:                      "Conflict",
	StatusGone:                          "Gone",
	StatusLengthRequired:                "Length Required",
	StatusPreconditionFailed:            "Precondition Failed",
	StatusPayloadTooLarge:               "Payload Too Large",
	StatusURITooLong:                    "URI Too Long",
	StatusUnsupportedMediaType:          "Unsupported Media Type",
	StatusRangeNotSatisfiable:           "Range Not Satisfiable",
	StatusExpectationFailed:             "Expectation Failed",
	StatusImATeapot:                     "I'm A Teapot",
	StatusUnprocessableEntity:           "Unprocessable Entity",
	StatusLocked:                        "Locked",
	StatusFailedDependency:              "Failed Dependency",
	StatusUpgradeRequired:               "Upgrade Required",
	StatusPreconditionRequired:          "Precondition Required",
	StatusRequestHeaderFieldsTooLarge:   "Request Header Fields Too Large",
	StatusInternalServerError:           "Internal Server Error",
	StatusNotImplemented:                "Not Implemented",
	StatusBadGateway:                    "Bad Gateway",
	StatusServiceUnavailable:            "Service Unavailable",
	StatusGatewayTimeout:                "Gateway Timeout",
	StatusHTTPVersionNotSupported:       "Http Version Not Supported",
	StatusInsufficientStorage:           "Insufficient Storage",
	StatusNetworkAuthenticationRequired: "Network Authentication Required",
}

// Reason returns the reason phrase for the status, or "Unknown" for codes
// outside the vocabulary.
func (s Status) Reason() string {
	if r, ok := reasons[s]; ok {
		return r
	}
	return "Unknown"
}

// Line returns the status portion of the response line, e.g. "200 Ok".
func (s Status) Line() string {
	return fmt.Sprintf("%d %s", int(s), s.Reason())
}

// Known reports whether the code belongs to the status vocabulary.
func (s Status) Known() bool {
	_, ok := reasons[s]
	return ok
}

// ParseRequestLine splits an HTTP/1.x request line into method and target.
// Anything beyond the first two whitespace-separated fields (the protocol
// version) is ignored; no version validation is performed.
func ParseRequestLine(line string) (Method, string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("%w: %q", ErrBadRequestLine, strings.TrimSpace(line))
	}
	return Method(fields[0]), fields[1], nil
}

// FormatResponse serializes a response: status line, header lines in
// unspecified order, a blank line, then the body verbatim. No framing headers
// are added.
func FormatResponse(statusLine string, headers map[string]string, body string) string {
	var b strings.Builder
	b.WriteString("HTTP/1.1 ")
	b.WriteString(statusLine)
	b.WriteString("\r\n")
	for name, value := range headers {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.String()
}
