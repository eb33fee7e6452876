package version

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "searchflip/"+Version+" (go") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
