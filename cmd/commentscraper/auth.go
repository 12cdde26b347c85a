package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"commentscraper/pkg/auth"
	"commentscraper/pkg/models"
	"commentscraper/pkg/ui"
)

var deleteAll bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage platform API credentials",
	Long: `Manage stored platform API credentials securely.

Credentials are stored in the system keychain when one is available.
In headless environments (CI, containers) set the COMMENTSCRAPER_*
environment variables instead; they act as a read-only fallback store.

Never share your credentials or commit them to version control!`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set <platform>",
	Short: "Store credentials for a platform",
	Long: `Store API credentials for a platform in the system keychain.

What you are prompted for depends on the platform:
  youtube    - Data API v3 key
  instagram  - Graph API access token
  facebook   - Graph API access token
  tiktok     - Research API client key and secret

The command first prints a short guide on where each value comes from.`,
	Example: `  # Store a YouTube API key
  commentscraper auth set youtube

  # Store TikTok research credentials
  commentscraper auth set tiktok`,
	Args: cobra.ExactArgs(1),
	Run:  runAuthSet,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	Long:  `List stored platform credentials with their secrets masked.`,
	Run:   runAuthList,
}

// authDeleteCmd represents the auth delete command
var authDeleteCmd = &cobra.Command{
	Use:   "delete [platform]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials for a platform, or all platforms at once
with --all. Environment variable credentials cannot be deleted here;
unset the variables instead.`,
	Example: `  # Remove one platform's credentials
  commentscraper auth delete youtube

  # Remove everything
  commentscraper auth delete --all`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authDeleteCmd)

	authDeleteCmd.Flags().BoolVar(&deleteAll, "all", false, "remove credentials for every platform")
}

func runAuthSet(cmd *cobra.Command, args []string) {
	platform, err := models.ParsePlatform(strings.TrimSpace(args[0]))
	if err != nil {
		ui.PrintError("Unknown platform", args[0])
		fmt.Println("\nSupported platforms: youtube, instagram, tiktok, facebook")
		os.Exit(1)
	}

	manager := auth.NewManager()
	reader := bufio.NewReader(os.Stdin)

	auth.ShowSetupGuide(platform)

	fmt.Print("Ready to enter your credentials? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Printf("\nRun 'commentscraper auth set %s' when you're ready.\n", platform)
		return
	}

	cred := &auth.Credential{Platform: platform}

	fmt.Println("\n🔐 Enter your credentials (they will be hidden as you type):")
	fmt.Println()

	switch platform {
	case models.PlatformYouTube:
		cred.APIKey = promptSecret("API key")
	case models.PlatformInstagram, models.PlatformFacebook:
		cred.AccessToken = promptSecret("Access token")
	case models.PlatformTikTok:
		cred.ClientKey = promptSecret("Client key")
		cred.ClientSecret = promptSecret("Client secret")
	}

	if err := cred.Validate(); err != nil {
		ui.PrintError("Invalid credentials", err.Error())
		os.Exit(1)
	}

	fmt.Println("\n💾 Storing credentials securely...")
	if err := manager.Store(cred); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		if !auth.KeyringAvailable() {
			fmt.Println("\nNo system keychain is available here. Set these environment")
			fmt.Println("variables instead:")
			for _, name := range auth.EnvVarsFor(platform) {
				fmt.Printf("  export %s=...\n", name)
			}
		}
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials saved: %s", platform))
	fmt.Println("\nCheck that everything works:")
	fmt.Println("  commentscraper status")
	fmt.Println("\nThen start scraping:")
	fmt.Printf("  commentscraper scrape %s <content-id>\n", platform)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager := auth.NewManager()

	creds, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list credentials", err.Error())
		os.Exit(1)
	}

	if len(creds) == 0 {
		ui.PrintInfo("No stored credentials", "Use 'commentscraper auth set <platform>' to add some")
		fmt.Println("\nOr set environment variables:")
		for _, p := range models.AllPlatforms() {
			fmt.Printf("  %-10s %s\n", p.String()+":", strings.Join(auth.EnvVarsFor(p), ", "))
		}
		return
	}

	ui.PrintHighlight("Stored Credentials")
	fmt.Println()

	for _, cred := range creds {
		sanitized := auth.Sanitize(cred)
		fmt.Printf("%s\n", ui.Cyan(sanitized.Platform.String()))
		if sanitized.APIKey != "" {
			fmt.Printf("   API Key:       %s\n", sanitized.APIKey)
		}
		if sanitized.AccessToken != "" {
			fmt.Printf("   Access Token:  %s\n", sanitized.AccessToken)
		}
		if sanitized.ClientKey != "" {
			fmt.Printf("   Client Key:    %s\n", sanitized.ClientKey)
		}
		if sanitized.ClientSecret != "" {
			fmt.Printf("   Client Secret: %s\n", sanitized.ClientSecret)
		}
		if !sanitized.UpdatedAt.IsZero() {
			fmt.Printf("   Updated:       %s\n", sanitized.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func runAuthDelete(cmd *cobra.Command, args []string) {
	manager := auth.NewManager()
	reader := bufio.NewReader(os.Stdin)

	if deleteAll {
		fmt.Print("Remove credentials for ALL platforms? This cannot be undone! (yes/N): ")
		confirm, _ := reader.ReadString('\n')
		if strings.TrimSpace(confirm) != "yes" {
			return
		}
		if err := manager.DeleteAll(); err != nil {
			ui.PrintError("Failed to remove credentials", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("All credentials removed")
		return
	}

	if len(args) == 0 {
		ui.PrintError("Platform required", "Name a platform or pass --all")
		os.Exit(1)
	}

	platform, err := models.ParsePlatform(strings.TrimSpace(args[0]))
	if err != nil {
		ui.PrintError("Unknown platform", args[0])
		os.Exit(1)
	}

	fmt.Printf("Remove credentials for '%s'? (y/N): ", platform)
	confirm, _ := reader.ReadString('\n')
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(confirm)), "y") {
		return
	}

	if err := manager.Delete(platform); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Credentials removed: " + platform.String())
}

// promptSecret asks for one secret value, retrying until it is non-empty.
func promptSecret(label string) string {
	for {
		fmt.Printf("%s: ", label)
		value, err := readPassword()
		if err != nil {
			ui.PrintError("Failed to read input", err.Error())
			os.Exit(1)
		}
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
		fmt.Printf("\n%s cannot be empty.\n", label)
	}
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	// Try to read without echo
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after password
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
