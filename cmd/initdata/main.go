package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/sync/errgroup"
)

var (
	baseURL   = flag.String("url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	name      = flag.String("name", env("NAME", "Demo User"), "User display name")
	email     = flag.String("email", env("EMAIL", "demo@example.com"), "User e-mail")
	pass      = flag.String("pass", env("PASSWORD", "Password123"), "User password")
	nNotes    = flag.Int("n", envInt("COUNT", 50), "How many notes to create")
	favEvery  = flag.Int("fav-every", envInt("FAV_EVERY", 5), "Mark every Nth note as favourite")
	imgEvery  = flag.Int("img-every", envInt("IMG_EVERY", 10), "Attach a generated image to every Nth note (0 disables)")
	workers   = flag.Int("workers", envInt("WORKERS", 4), "Concurrent requests")
	reqTimout = 15 * time.Second
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v >= 0 {
		return v
	}
	return def
}

type client struct {
	http  *http.Client
	token string
}

func (c *client) do(ctx context.Context, req *http.Request) ([]byte, int, error) {
	req = req.WithContext(ctx)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func (c *client) postJSON(ctx context.Context, path string, payload any) ([]byte, int, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequest(http.MethodPost, *baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, req)
}

func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	fmt.Printf("Init account %s (notes=%d) on %s\n", *email, *nNotes, *baseURL)

	ctx := context.Background()
	c := &client{http: &http.Client{Timeout: reqTimout}}

	if err := c.ensureUser(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	if err := c.createNotes(ctx, *nNotes); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Println("done")
}

// ensureUser signs up, falling back to sign-in for an existing account.
func (c *client) ensureUser(ctx context.Context) error {
	var r struct {
		Token string `json:"token"`
	}

	signUp := map[string]string{"name": *name, "email": *email, "password": *pass}
	if body, status, err := c.postJSON(ctx, "/api/v1/auth/sign-up", signUp); err == nil && status == http.StatusCreated {
		if err := json.Unmarshal(body, &r); err != nil {
			return err
		}
		c.token = r.Token
		fmt.Println("signed up new user")
		return nil
	}

	signIn := map[string]string{"email": *email, "password": *pass}
	body, status, err := c.postJSON(ctx, "/api/v1/auth/sign-in", signIn)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("sign-in failed (%d): %s", status, body)
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return err
	}
	c.token = r.Token
	fmt.Println("signed in existing user")
	return nil
}

func (c *client) uploadImage(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("images", "seed.png")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(gofakeit.ImagePng(64, 64)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/v1/media/images", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	body, status, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("image upload failed (%d): %s", status, body)
	}

	var r struct {
		Images []string `json:"images"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return "", err
	}
	if len(r.Images) == 0 {
		return "", fmt.Errorf("image upload returned no url")
	}
	return r.Images[0], nil
}

func (c *client) createNotes(ctx context.Context, total int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*workers, 1))

	var done atomic.Int64
	for i := 1; i <= total; i++ {
		g.Go(func() error {
			note := map[string]any{
				"title":        gofakeit.Sentence(3),
				"content":      gofakeit.Paragraph(1, 3, 40, " "),
				"is_favourite": *favEvery > 0 && i%*favEvery == 0,
			}

			if *imgEvery > 0 && i%*imgEvery == 0 {
				url, err := c.uploadImage(ctx)
				if err != nil {
					return err
				}
				note["images"] = []string{url}
			}

			body, status, err := c.postJSON(ctx, "/api/v1/notes", note)
			if err != nil {
				return err
			}
			if status != http.StatusCreated {
				return fmt.Errorf("create note %d failed (%d): %s", i, status, body)
			}

			if n := done.Add(1); n%10 == 0 || int(n) == total {
				fmt.Printf("  %d/%d\n", n, total)
			}
			return nil
		})
	}
	return g.Wait()
}
