package models

import "regexp"

// ownerKeyRe: 8 digits followed by one uppercase letter.
var ownerKeyRe = regexp.MustCompile(`^[0-9]{8}[A-Z]$`)

type Owner struct {
	Key   string
	Name  string
	Phone string
	Email string
}

type OwnerInput struct {
	Key   string
	Name  string
	Phone string
	Email string
}

func ValidOwnerKey(key string) bool {
	return ownerKeyRe.MatchString(key)
}
