package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/smallwat3r/longerlogin/internal/auth"
	"github.com/smallwat3r/longerlogin/internal/domain"
	"github.com/smallwat3r/longerlogin/internal/settings"
	"github.com/smallwat3r/longerlogin/internal/utility"
)

const defaultBaseURL = "http://localhost:8080"

const (
	maxRetries = 5
	retryDelay = 1 * time.Second
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	baseURL := utility.Getenv("LONGER_LOGIN_URL", defaultBaseURL)
	cookie := os.Getenv("LONGER_LOGIN_COOKIE")

	switch os.Args[1] {
	case "hash":
		if len(os.Args) != 3 {
			fmt.Fprintf(os.Stderr, "Usage: %s hash <password>\n", os.Args[0])
			os.Exit(1)
		}
		hashPassword(os.Args[2])
	case "presets":
		printPresets()
	case "status":
		showExpiration(baseURL, cookie)
	case "set":
		if len(os.Args) != 3 {
			fmt.Fprintf(os.Stderr, "Usage: %s set <seconds>\n", os.Args[0])
			os.Exit(1)
		}
		setExpiration(baseURL, cookie, os.Args[2])
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Usage: %s <command> [arguments]\n", os.Args[0])
	fmt.Println("Manage the \"remember me\" login length of a longerlogin server.")
	fmt.Println("\nCommands:")
	fmt.Println("  hash <password>   Print an ADMIN_PASSWORD_HASH value for password")
	fmt.Println("  presets           List the login lengths offered on the settings page")
	fmt.Println("  status            Show the configured login length")
	fmt.Println("  set <seconds>     Set the login length")
	fmt.Println("  help              Show this help message")
	fmt.Println("\nEnvironment variables:")
	fmt.Println("  LONGER_LOGIN_URL     Base URL of the server (default: http://localhost:8080)")
	fmt.Println("  LONGER_LOGIN_COOKIE  Value of an admin session cookie")
}

// doRequestWithRetry retries while the server answers 502, e.g. during a
// restart behind a proxy.
func doRequestWithRetry(req *http.Request) (*http.Response, error) {
	client := &http.Client{}

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			log.Printf("server returned 502, retrying in %v... (%d/%d)", retryDelay, i, maxRetries-1)
			time.Sleep(retryDelay)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				req.Body = body
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusBadGateway {
			return resp, nil
		}

		resp.Body.Close()
	}

	return nil, fmt.Errorf("server unavailable after %d retries", maxRetries)
}

func hashPassword(password string) {
	hash, err := utility.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	fmt.Println(hash)
}

func printPresets() {
	for _, p := range settings.Presets {
		fmt.Printf("%-10d %s\n", p.Seconds, p.Label)
	}
}

func showExpiration(baseURL, cookie string) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/expiration", nil)
	if err != nil {
		log.Fatalf("failed to create request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie})
	req.Header.Set("Accept", "application/json")

	printExpiration(doExpirationRequest(req))
}

func setExpiration(baseURL, cookie, seconds string) {
	reqBody, err := json.Marshal(domain.ExpirationReq{Value: seconds})
	if err != nil {
		log.Fatalf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/expiration", bytes.NewReader(reqBody))
	if err != nil {
		log.Fatalf("failed to create request: %v", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(reqBody)), nil
	}
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie})
	req.Header.Set("Content-Type", "application/json")

	res := doExpirationRequest(req)
	if res.Value != seconds {
		fmt.Printf("%q is not a number; the default was stored instead.\n", seconds)
	}
	printExpiration(res)
}

func doExpirationRequest(req *http.Request) domain.ExpirationRes {
	resp, err := doRequestWithRetry(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("request failed: status %d, body: %s", resp.StatusCode, body)
	}

	var res domain.ExpirationRes
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		log.Fatalf("failed to decode response: %v", err)
	}
	return res
}

func printExpiration(res domain.ExpirationRes) {
	stored := res.Value
	if stored == "" {
		stored = "(not set)"
	}
	fmt.Printf("Stored: %s\n", stored)
	fmt.Printf("Lifetime: %s\n", time.Duration(res.Seconds)*time.Second)
	if res.Label != "" {
		fmt.Printf("Preset: %s\n", res.Label)
	}
}
