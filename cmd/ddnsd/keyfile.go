package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/cloudflare/cloudflare-go"
	"github.com/go-logr/logr"
	"golang.org/x/term"
)

// loadKey returns the Cloudflare API token stored in path.
// When the file does not exist and stdin is a terminal the user is asked for the token,
// which is verified against Cloudflare first if verify is set.
func loadKey(path string, verify bool, logger logr.Logger) (string, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("key file does not exist", "path", path)
		if !term.IsTerminal(int(syscall.Stdin)) {
			return "", fmt.Errorf("key file \"%s\" does not exist and stdin is not a terminal", path)
		}
		if err := runSetup(path, verify, logger); err != nil {
			return "", fmt.Errorf("setup: %w", err)
		}
	}
	if err := verifyPermissions(path); err != nil {
		return "", err
	}
	key, err := readKey(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	logger.V(1).Info("successfully read key from key file", "path", path)
	return key, nil
}

func setupPrompt(path string) string {
	return fmt.Sprintf("Enter the Cloudflare API token to store in %s:", path)
}

func runSetup(path string, verify bool, logger logr.Logger) error {
	logger.V(1).Info("running setup")
	// give buffered log lines on stderr a moment to reach the terminal before prompting on stdout
	time.Sleep(200 * time.Millisecond)
	fmt.Println(setupPrompt(path))
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("runSetup: error reading from stdin: %w", err)
	}
	key := string(bytekey)

	if verify {
		if err := verifyToken(key, logger); err != nil {
			return err
		}
	}

	logger.Info("creating key file", "path", path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", path, err)
	}
	defer f.Close()
	fmt.Fprintln(f, key)
	logger.Info("token written", "path", path)
	return nil
}

func verifyToken(key string, logger logr.Logger) error {
	api, err := cloudflare.NewWithAPIToken(key)
	if err != nil {
		return fmt.Errorf("error creating api client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.V(1).Info("verifying token")
	result, err := api.VerifyAPIToken(ctx)
	if err != nil {
		return fmt.Errorf("unable to verify api token: %w", err)
	}
	if result.Status != "active" {
		return fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", result.Status)
	}
	logger.V(1).Info("token verified successfully")
	return nil
}

func readKey(path string) (key string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	keyb, _, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("error reading line: %w", err)
	}
	return string(keyb), nil
}

func verifyPermissions(path string) error {

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking keyfile permissions: %w", err)
	}

	perms := info.Mode().Perm()
	// Error messages will state that we want 0600,
	// but we'll also accept 0400 which is even more restricted.
	// The file might be provided by some secrets managing software as readonly.
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for \"%s\": expected file permissions \"-rw-------\"; found \"%s\"", path, fs.FileMode(perms))
	}

	return nil
}
