package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apiclient "github.com/splax/accounts/pkg/api/client"
	"golang.org/x/term"
)

type cliConfig struct {
	APIBaseURL   string `json:"api_base_url"`
	SessionToken string `json:"session_token"`
}

const defaultAPIBase = "http://localhost:4000"

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "create":
		err = commandCreate(args)
	case "login":
		err = commandLogin(args)
	case "whoami":
		err = commandWhoami(args)
	case "update":
		err = commandUpdate(args)
	case "reset":
		err = commandReset(args)
	case "change":
		err = commandChange(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func commandCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	name := fs.String("name", "", "Display name (at least 3 characters)")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	image := fs.String("image", "", "Optional profile image path")
	apiBase := fs.String("api", "", "API base URL (default http://localhost:4000)")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" {
		return errors.New("--name is required")
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password, "Password: ")
	if err != nil {
		return err
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := client.CreateAccount(ctx, apiclient.CreateAccountInput{
		Name:         *name,
		Email:        *email,
		Password:     secret,
		ProfileImage: *image,
	})
	if err != nil {
		return err
	}
	cfg.SessionToken = token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("account created")
	return nil
}

func commandLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default http://localhost:4000)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := readSecret(*password, "Password: ")
	if err != nil {
		return err
	}

	cfg, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := client.Login(ctx, *email, secret)
	if err != nil {
		return err
	}
	cfg.SessionToken = token
	if err := saveConfig(cfg); err != nil {
		return err
	}
	fmt.Println("login successful")
	return nil
}

func commandWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	fs.Parse(args)

	cfg, client, err := clientFor("")
	if err != nil {
		return err
	}
	token, err := sessionToken(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	account, err := client.GetUser(ctx, token)
	if err != nil {
		return err
	}
	if account == nil {
		return errors.New("account no longer exists")
	}
	fmt.Printf("%s\t%s\t%s\t%s\n", account.ID, account.Name, account.Email, account.ProfileImage)
	return nil
}

func commandUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	name := fs.String("name", "", "New display name")
	email := fs.String("email", "", "New email address")
	image := fs.String("image", "", "New profile image path")
	fs.Parse(args)

	if strings.TrimSpace(*name) == "" && strings.TrimSpace(*email) == "" && strings.TrimSpace(*image) == "" {
		return errors.New("nothing to update: pass --name, --email or --image")
	}

	cfg, client, err := clientFor("")
	if err != nil {
		return err
	}
	token, err := sessionToken(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stored, err := client.UpdateProfile(ctx, token, apiclient.UpdateProfileInput{
		Name:         *name,
		Email:        *email,
		ProfileImage: *image,
	})
	if err != nil {
		return err
	}
	if stored != "" {
		fmt.Printf("profile updated (image: %s)\n", stored)
		return nil
	}
	fmt.Println("profile updated")
	return nil
}

func commandReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	email := fs.String("email", "", "Email address of the account")
	apiBase := fs.String("api", "", "API base URL (default http://localhost:4000)")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	_, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.RequestPasswordReset(ctx, *email)
	if err != nil {
		return err
	}
	fmt.Println("reset link sent, check your inbox")
	if resp.Token != "" {
		fmt.Printf("reset token: %s\n", resp.Token)
	}
	return nil
}

func commandChange(args []string) error {
	fs := flag.NewFlagSet("change", flag.ExitOnError)
	token := fs.String("token", "", "Reset token from the emailed link")
	password := fs.String("password", "", "New password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL (default http://localhost:4000)")
	fs.Parse(args)

	if strings.TrimSpace(*token) == "" {
		return errors.New("--token is required")
	}
	secret, err := readSecret(*password, "New password: ")
	if err != nil {
		return err
	}
	_, client, err := clientFor(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.ChangePassword(ctx, *token, secret); err != nil {
		return err
	}
	fmt.Println("password updated, log in again with the new password")
	return nil
}

// readSecret returns flagValue or prompts without echo.
func readSecret(flagValue, prompt string) (string, error) {
	if secret := strings.TrimSpace(flagValue); secret != "" {
		return secret, nil
	}
	fmt.Print(prompt)
	bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(bytes), nil
}

func clientFor(apiBase string) (cliConfig, *apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliConfig{}, nil, err
	}
	if strings.TrimSpace(apiBase) != "" {
		cfg.APIBaseURL = apiBase
	}
	client, err := apiclient.New(cfg.APIBaseURL)
	if err != nil {
		return cliConfig{}, nil, err
	}
	return cfg, client, nil
}

func sessionToken(cfg cliConfig) (string, error) {
	token := strings.TrimSpace(cfg.SessionToken)
	if token == "" {
		return "", errors.New("please login first using 'acct login'")
	}
	return token, nil
}

func loadConfig() (cliConfig, error) {
	path, err := configPath()
	if err != nil {
		return cliConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cliConfig{APIBaseURL: defaultAPIBase}, nil
		}
		return cliConfig{}, err
	}
	var cfg cliConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, err
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBase
	}
	return cfg, nil
}

func saveConfig(cfg cliConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "acct", "config.json"), nil
}

func printUsage() {
	fmt.Printf("acct CLI %s\n\n", buildVersion)
	fmt.Print(`Usage:
	acct create --name <name> --email user@example.com [--password secret] [--image path] [--api http://localhost:4000]
	acct login --email user@example.com [--password secret] [--api http://localhost:4000]
	acct whoami
	acct update [--name <name>] [--email <email>] [--image path]
	acct reset --email user@example.com
	acct change --token <reset-token> [--password secret]
	acct version
`)
}

func printVersion() {
	fmt.Println(strings.TrimSpace(buildVersion))
}
