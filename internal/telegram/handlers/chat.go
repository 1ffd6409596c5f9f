package handlers

import (
	"strconv"

	"github.com/google/uuid"
)

// SessionIDForChat maps a chat to a stable session id, so every message of a
// chat lands in the same session and reuses its cached documents.
func SessionIDForChat(chatID int64) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("telegram:"+strconv.FormatInt(chatID, 10))).String()
}
