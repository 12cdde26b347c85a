package auth

import (
	"fmt"
	"strings"

	"commentscraper/pkg/models"
)

// ShowSetupGuide displays step-by-step instructions for obtaining API
// credentials for the given platform.
func ShowSetupGuide(platform models.Platform) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("🔑 %s CREDENTIAL SETUP\n", strings.ToUpper(platform.String()))
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	switch platform {
	case models.PlatformYouTube:
		fmt.Println("YouTube comments are fetched through the YouTube Data API v3.")
		fmt.Println()
		fmt.Println("STEP 1: Create a Google Cloud project")
		fmt.Println("   - Go to https://console.cloud.google.com")
		fmt.Println("   - Create a new project (or pick an existing one)")
		fmt.Println()
		fmt.Println("STEP 2: Enable the YouTube Data API v3")
		fmt.Println("   - APIs & Services → Library → search 'YouTube Data API v3' → Enable")
		fmt.Println()
		fmt.Println("STEP 3: Create an API key")
		fmt.Println("   - APIs & Services → Credentials → Create Credentials → API key")
		fmt.Println()
		fmt.Println("Then run:")
		fmt.Println("   commentscraper auth set youtube")
		fmt.Println()
		fmt.Println("💡 The default quota is 10,000 units per day. Each comment page")
		fmt.Println("   costs one unit, and the daily cap in the config should match")
		fmt.Println("   whatever quota your project has been granted.")

	case models.PlatformInstagram:
		fmt.Println("Instagram comments are fetched through the Instagram Graph API,")
		fmt.Println("which requires a professional (business or creator) account.")
		fmt.Println()
		fmt.Println("STEP 1: Create a Meta app")
		fmt.Println("   - Go to https://developers.facebook.com/apps and create an app")
		fmt.Println()
		fmt.Println("STEP 2: Connect your Instagram professional account")
		fmt.Println("   - Add the Instagram Graph API product to the app")
		fmt.Println("   - Link the Instagram account through a Facebook Page")
		fmt.Println()
		fmt.Println("STEP 3: Generate a long-lived access token")
		fmt.Println("   - Use the Graph API Explorer with instagram_basic and")
		fmt.Println("     instagram_manage_comments permissions")
		fmt.Println("   - Exchange the short-lived token for a long-lived one")
		fmt.Println()
		fmt.Println("Then run:")
		fmt.Println("   commentscraper auth set instagram")

	case models.PlatformTikTok:
		fmt.Println("TikTok comments are fetched through the TikTok Research API,")
		fmt.Println("which is only open to approved research projects.")
		fmt.Println()
		fmt.Println("STEP 1: Apply for Research API access")
		fmt.Println("   - Go to https://developers.tiktok.com/products/research-api")
		fmt.Println("   - Submit a research proposal and wait for approval")
		fmt.Println()
		fmt.Println("STEP 2: Collect your client key and secret")
		fmt.Println("   - Once approved, both appear in the developer portal under")
		fmt.Println("     your research project")
		fmt.Println()
		fmt.Println("Then run:")
		fmt.Println("   commentscraper auth set tiktok")
		fmt.Println()
		fmt.Println("💡 Access tokens are minted automatically from the key and secret;")
		fmt.Println("   you never have to refresh them by hand.")

	case models.PlatformFacebook:
		fmt.Println("Facebook comments are fetched through the Facebook Graph API.")
		fmt.Println()
		fmt.Println("STEP 1: Create a Meta app")
		fmt.Println("   - Go to https://developers.facebook.com/apps and create an app")
		fmt.Println()
		fmt.Println("STEP 2: Generate a Page access token")
		fmt.Println("   - Use the Graph API Explorer with pages_read_engagement and")
		fmt.Println("     pages_read_user_content permissions for the Page that owns")
		fmt.Println("     the posts you want to scrape")
		fmt.Println()
		fmt.Println("Then run:")
		fmt.Println("   commentscraper auth set facebook")
	}

	fmt.Println()
	fmt.Println("⚠️  SECURITY:")
	fmt.Println("   • Never commit credentials to version control")
	fmt.Println("   • Credentials are kept in the system keychain when available")
	fmt.Println("   • In CI, set the COMMENTSCRAPER_* environment variables instead")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// EnvVarsFor returns the environment variable names the read-only fallback
// store checks for the platform.
func EnvVarsFor(platform models.Platform) []string {
	switch platform {
	case models.PlatformYouTube:
		return []string{envYouTubeAPIKey}
	case models.PlatformInstagram:
		return []string{envInstagramAccessToken}
	case models.PlatformTikTok:
		return []string{envTikTokClientKey, envTikTokClientSecret}
	case models.PlatformFacebook:
		return []string{envFacebookAccessToken}
	default:
		return nil
	}
}
