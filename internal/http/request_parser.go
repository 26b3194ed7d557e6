// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating request bodies.
// Bodies may be JSON or form-encoded; both go through the same accessors.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// maxBodyBytes bounds every request body the API reads.
const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		// Keep numbers textual so amounts never pass through a float.
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
			return p.err
		}
		return nil
	}

	formData, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		return p.err
	}
	p.formData = formData
	return nil
}

// Get returns a trimmed string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseNewTransaction builds a transaction draft from the parsed body. A
// missing date means today in the server's location.
func ParseNewTransaction(p *RequestBodyParser, now time.Time) (core.NewTransaction, error) {
	if err := p.Parse(); err != nil {
		return core.NewTransaction{}, err
	}

	typ, err := core.ParseTxType(p.Get("type"))
	if err != nil {
		return core.NewTransaction{}, err
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.NewTransaction{}, err
	}
	date := core.DateOf(now)
	if raw := p.Get("date"); raw != "" {
		if date, err = core.ParseDate(raw); err != nil {
			return core.NewTransaction{}, err
		}
	}

	nt := core.NewTransaction{
		Amount:      amount,
		Description: p.Get("description"),
		Category:    p.Get("category"),
		Date:        date,
		Type:        typ,
	}
	if err := nt.Validate(); err != nil {
		return core.NewTransaction{}, err
	}
	return nt.Normalize(), nil
}

// Credentials is the body of the sign-up and login endpoints.
type Credentials struct {
	Email    string
	Password string
}

// ParseCredentials reads email and password. The password is not trimmed.
func ParseCredentials(p *RequestBodyParser) (Credentials, error) {
	if err := p.Parse(); err != nil {
		return Credentials{}, err
	}
	c := Credentials{Email: p.Get("email")}
	switch {
	case p.jsonData != nil:
		c.Password = stringValue(p.jsonData["password"])
	case p.formData != nil:
		c.Password = p.formData.Get("password")
	}
	return c, nil
}
