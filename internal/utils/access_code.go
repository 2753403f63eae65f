package utils

import "golang.org/x/crypto/bcrypt"

func HashAccessCode(code string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	return string(b), err
}

func CheckAccessCode(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
