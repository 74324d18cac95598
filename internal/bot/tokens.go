package bot

import (
	"strconv"
	"strings"
)

// Button tokens. Tokens with a numeric suffix are produced by
// registerToken/checkInQRToken and parsed back in the button dispatcher.
const (
	tokenAbout         = "about_bot"
	tokenMyProfile     = "my_profile"
	tokenMyQRCard      = "my_qr_card"
	tokenActiveEvents  = "active_events"
	tokenNotifSettings = "notif_settings"
	tokenToggleEvents  = "toggle_events"
	tokenToggleNews    = "toggle_news"
	tokenQRForCheckIn  = "qr_for_checkin"
	tokenBackToMain    = "back_to_main"
	tokenBackToModer   = "back_to_moder"
	tokenNoop          = "noop"

	tokenModStats       = "mod_stats"
	tokenModCreateEvent = "mod_create_event"
	tokenModSetRole     = "mod_set_role"
	tokenModBroadcast   = "mod_broadcast"
	tokenModSearchUser  = "mod_search_user"

	registerPrefix  = "reg_"
	checkInQRPrefix = "gen_qr_checkin_"
)

func registerToken(eventID int64) string {
	return registerPrefix + strconv.FormatInt(eventID, 10)
}

func checkInQRToken(eventID int64) string {
	return checkInQRPrefix + strconv.FormatInt(eventID, 10)
}

// parseSuffixID extracts the numeric suffix of a prefixed token. The second
// return is false for a missing or non-numeric suffix.
func parseSuffixID(token, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(token, prefix)
	if raw == token || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
