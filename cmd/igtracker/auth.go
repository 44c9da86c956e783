package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"igtracker/pkg/auth"
	"igtracker/pkg/config"
	"igtracker/pkg/ui"
)

var logoutAll bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram session credentials",
	Long: `Manage the Instagram session cookies igtracker uses to read profiles.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (IGTRACKER_SESSION_ID, IGTRACKER_CSRF_TOKEN)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Instagram session cookies securely",
	Long: `Store Instagram session cookies in the system keychain or an encrypted file.

You will be prompted for:
  - Instagram username (if not provided)
  - sessionid cookie
  - csrftoken cookie
  - ds_user_id cookie (optional)
  - User Agent (optional, press Enter for default)`,
	Example: `  # Interactive login
  igtracker auth login

  # Login with username
  igtracker auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Example: `  igtracker auth logout myusername
  igtracker auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored accounts and the session in use",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	auth.WriteCookieGuide(os.Stdout)
	fmt.Print("\nReady to enter your cookies? (Y/n): ")
	if strings.ToLower(readLine(reader)) == "n" {
		fmt.Println("\nRun 'igtracker auth login' when you're ready.")
		return nil
	}

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Print("\nInstagram username: ")
		username = readLine(reader)
	}
	if username == "" {
		return errors.New("username is required")
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("\nAccount '%s' already exists. Update credentials? (y/N): ", username)
		if !strings.HasPrefix(strings.ToLower(readLine(reader)), "y") {
			return nil
		}
	}

	fmt.Println("\nEnter your cookie values (input is hidden):")

	sessionID, err := promptCookie(reader, "sessionid", func(v string) bool {
		return len(v) >= 20 && strings.Contains(v, "%")
	}, "It should be a long string containing % symbols, e.g. 12345678%3Aabcdef%3A26%3A...")
	if err != nil {
		return err
	}

	csrfToken, err := promptCookie(reader, "csrftoken", func(v string) bool {
		return len(v) >= 20 && len(v) <= 50
	}, "It should be around 32 characters long.")
	if err != nil {
		return err
	}

	fmt.Print("\nds_user_id cookie value (optional): ")
	dsUserID := readLine(reader)

	fmt.Print("User Agent (press Enter to use default): ")
	userAgent := readLine(reader)

	account := &auth.Account{
		Username:  username,
		SessionID: sessionID,
		CSRFToken: csrfToken,
		DSUserID:  dsUserID,
		UserAgent: userAgent,
	}
	if err := manager.Store(account); err != nil {
		return err
	}

	sanitized := auth.SanitizeAccount(account)
	fmt.Println()
	ui.PrintInfo("Username", sanitized.Username)
	ui.PrintInfo("Session ID", sanitized.SessionID)
	ui.PrintInfo("CSRF Token", sanitized.CSRFToken)
	ui.PrintSuccess("Credentials stored for " + username)
	fmt.Println("\nStart tracking with:")
	fmt.Println("  $ igtracker track <instagram_username>")
	return nil
}

// promptCookie reads a hidden value until valid accepts it or the user gives up
func promptCookie(reader *bufio.Reader, name string, valid func(string) bool, hint string) (string, error) {
	for {
		fmt.Printf("\n%s cookie value: ", name)
		value, err := readPassword()
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		if valid(value) {
			return value, nil
		}

		fmt.Printf("\nThat doesn't look like a valid %s.\n", name)
		fmt.Printf("   %s\n", hint)
		fmt.Print("\nTry again? (Y/n): ")
		if strings.ToLower(readLine(reader)) == "n" {
			return "", fmt.Errorf("%w: %s", auth.ErrInvalidCredentials, name)
		}
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if logoutAll {
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove accounts: %w", err)
		}
		ui.PrintSuccess("All accounts removed")
		return nil
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintWarning("No stored accounts found")
			return nil
		}
		if len(accounts) > 1 {
			return errors.New("several accounts are stored, pass a username or --all")
		}
		username = accounts[0].Username
	}

	if err := manager.Delete(username); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	ui.PrintSuccess("Account removed: " + username)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'igtracker auth login' to add one")
	} else {
		ui.PrintHighlight("Stored Accounts")
		for i, account := range accounts {
			sanitized := auth.SanitizeAccount(account)
			fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
			fmt.Printf("   Session ID: %s\n", sanitized.SessionID)
			fmt.Printf("   CSRF Token: %s\n", sanitized.CSRFToken)
			if sanitized.DSUserID != "" {
				fmt.Printf("   User ID: %s\n", sanitized.DSUserID)
			}
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}

	// Report which session a tracking command would use
	loaded, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	switch {
	case loaded.HasSession():
		ui.PrintInfo("Active session", "from config or environment")
	case auth.ResolveSession(manager, loaded):
		ui.PrintInfo("Active session", "from stored credentials")
	default:
		ui.PrintWarning("No active session", "tracking will fail until you run 'igtracker auth login'")
		auth.WriteQuickGuide(os.Stdout)
	}
	return nil
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword() (string, error) {
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePassword)), nil
}
