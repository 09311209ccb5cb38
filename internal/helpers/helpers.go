package helpers

import (
	"fmt"
	"strings"
)

type Platform struct {
	Name  string
	Color string
}

var AvailablePlatforms = []Platform{
	{Name: "youtube", Color: "#ff0033"},
	{Name: "twitch", Color: "#9146ff"},
	{Name: "tiktok", Color: "#fe2c55"},
	{Name: "instagram", Color: "#ff0076"},
	{Name: "facebook", Color: "#0866ff"},
	{Name: "twitter", Color: "#14171a"},
}

func IsKnownPlatform(name string) bool {
	for _, p := range AvailablePlatforms {
		if p.Name == name {
			return true
		}
	}
	return false
}

// ProfileURL derives an account's canonical profile URL from its handle.
// Done once at account creation; the stored URL is what every extraction
// strategy works from.
func ProfileURL(platform, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", fmt.Errorf("handle is required")
	}

	switch platform {
	case "youtube":
		return "https://www.youtube.com/@" + handle, nil
	case "twitch":
		return "https://www.twitch.tv/" + handle, nil
	case "tiktok":
		return "https://www.tiktok.com/@" + handle, nil
	case "instagram":
		return "https://www.instagram.com/" + handle + "/", nil
	case "facebook":
		return "https://www.facebook.com/" + handle, nil
	case "twitter":
		return "https://x.com/" + handle, nil
	default:
		return "", fmt.Errorf("platform %v not recognized", platform)
	}
}

// ContentURL builds the public URL for one content item.
func ContentURL(platform, handle, contentID string) (string, error) {
	handle = strings.TrimPrefix(handle, "@")

	switch platform {
	case "youtube":
		return "https://www.youtube.com/watch?v=" + contentID, nil
	case "twitch":
		return "https://www.twitch.tv/videos/" + contentID, nil
	case "tiktok":
		return "https://www.tiktok.com/@" + handle + "/video/" + contentID, nil
	case "instagram":
		return "https://www.instagram.com/p/" + contentID + "/", nil
	case "facebook":
		return "https://www.facebook.com/" + handle + "/posts/" + contentID, nil
	case "twitter":
		return "https://x.com/" + handle + "/status/" + contentID, nil
	default:
		return "", fmt.Errorf("platform %v not recognized", platform)
	}
}
