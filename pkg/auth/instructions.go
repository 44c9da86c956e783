package auth

import (
	"fmt"
	"io"
	"strings"
)

// CookieNames are the browser cookies the tracker needs, in prompt order
var CookieNames = []string{"sessionid", "csrftoken", "ds_user_id"}

// WriteCookieGuide writes step-by-step instructions for copying the session
// cookies out of a logged-in browser
func WriteCookieGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "INSTAGRAM SESSION COOKIES")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "igtracker reads profiles through Instagram's web API with your browser session.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Log in at https://www.instagram.com")
	fmt.Fprintln(w, "2. Open Developer Tools (F12, or Cmd+Option+I on macOS)")
	fmt.Fprintln(w, "3. Chrome/Edge: Application > Cookies > https://www.instagram.com")
	fmt.Fprintln(w, "   Firefox:     Storage > Cookies > https://www.instagram.com")
	fmt.Fprintln(w, "4. Copy the value of each cookie below:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "   sessionid    long value containing %3A, required")
	fmt.Fprintln(w, "   csrftoken    32 characters, required")
	fmt.Fprintln(w, "   ds_user_id   numeric id of the logged-in account, optional")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sessions expire. When tracking starts failing with an auth error, log in")
	fmt.Fprintln(w, "again and rerun `igtracker auth login`.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The cookies grant full access to the account. They are stored in the")
	fmt.Fprintln(w, "system keychain, or an encrypted file when no keychain is available.")
	fmt.Fprintln(w, rule)
}

// WriteQuickGuide writes a one-line reminder of where the cookies live
func WriteQuickGuide(w io.Writer) {
	fmt.Fprintf(w, "Cookies: DevTools > Application > Cookies > instagram.com (need %s)\n", strings.Join(CookieNames, ", "))
}
