package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
)

// client is a thin resty wrapper around the Inkwell REST API.
type client struct {
	http  *resty.Client
	token string
}

func newClient(baseURL, token string) *client {
	return &client{http: resty.New().SetBaseURL(baseURL), token: token}
}

func (c *client) req() *resty.Request {
	r := c.http.R()
	if c.token != "" {
		r.SetAuthToken(c.token)
	}
	return r
}

func checkResp(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func printJSON(out io.Writer, raw []byte) error {
	var pretty any
	if err := json.Unmarshal(raw, &pretty); err != nil {
		_, werr := out.Write(raw)
		return werr
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

func (c *client) register(out io.Writer, email, password string) error {
	resp, err := c.req().
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/api/auth/register")
	if err := checkResp(resp, err); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func (c *client) login(out io.Writer, email, password string) error {
	resp, err := c.req().
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/api/auth/token")
	if err := checkResp(resp, err); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func (c *client) createEntry(out io.Writer, title, body string, tags []string) error {
	resp, err := c.req().
		SetBody(map[string]interface{}{"title": title, "body": body, "tags": tags}).
		Post("/api/entries")
	if err := checkResp(resp, err); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func (c *client) getEntry(out io.Writer, id string) error {
	resp, err := c.req().Get("/api/entries/" + id)
	if err := checkResp(resp, err); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func (c *client) listEntries(out io.Writer, skip, limit int) error {
	resp, err := c.req().
		SetQueryParam("skip", fmt.Sprint(skip)).
		SetQueryParam("limit", fmt.Sprint(limit)).
		Get("/api/entries")
	if err := checkResp(resp, err); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}

func (c *client) deleteEntry(out io.Writer, id string) error {
	resp, err := c.req().Delete("/api/entries/" + id)
	if err := checkResp(resp, err); err != nil {
		return err
	}
	fmt.Fprintln(out, "deleted")
	return nil
}

func (c *client) search(out io.Writer, query string, limit int) error {
	resp, err := c.req().
		SetQueryParam("q", query).
		SetQueryParam("limit", fmt.Sprint(limit)).
		Get("/api/search")
	if err := checkResp(resp, err); err != nil {
		return err
	}
	return printJSON(out, resp.Body())
}
