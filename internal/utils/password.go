package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword хеширует пароль с заданной стоимостью bcrypt.
// Соль встроена в результат, открытый пароль нигде не сохраняется.
func HashPassword(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPasswordHash(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
