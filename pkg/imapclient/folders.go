package imapclient

import "strings"

// SentFolderCandidates is the ordered preference list of sent-folder
// names. Discovery tries a case-insensitive exact match against this
// list first, then falls back to the first folder whose name contains
// "sent". Nothing is ever created when no folder matches.
var SentFolderCandidates = []string{
	"Sent",
	"Sent Messages",
	"Sent Items",
	"Sent Mail",
	"[Gmail]/Sent Mail",
	"[Gmail]/Sent",
	"INBOX.Sent",
}

// FindSentFolder picks the sent folder out of an account's folder
// listing. Both passes are case-insensitive; the exact-match pass runs
// in candidate order, the substring pass in server listing order.
func FindSentFolder(folders []string) (string, bool) {
	for _, candidate := range SentFolderCandidates {
		for _, folder := range folders {
			if strings.EqualFold(folder, candidate) {
				return folder, true
			}
		}
	}

	for _, folder := range folders {
		if strings.Contains(strings.ToLower(folder), "sent") {
			return folder, true
		}
	}

	return "", false
}
