package httpclient

import (
	"context"
	"net/http"
)

// DecodeJSON decodes a successful response body into T.
func DecodeJSON[T any](resp *Response) (T, error) {
	var data T
	if err := resp.JSON(&data); err != nil {
		return data, err
	}
	return data, nil
}

// Send executes req and decodes the JSON response into T.
func Send[T any](ctx context.Context, c *Client, req Request) (T, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return DecodeJSON[T](resp)
}

// Get performs a GET request and decodes the JSON response into T.
func Get[T any](ctx context.Context, c *Client, path string, query Query) (T, error) {
	return Send[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return Send[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body and decodes the response into T.
func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return Send[T](ctx, c, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request and decodes the JSON response into T.
func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	return Send[T](ctx, c, Request{Method: http.MethodDelete, Path: path})
}
