package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "streaming-gate"

// iat и exp хранятся с точностью до микросекунды: по iat сравнивается отметка
// отзыва всех сессий, и вход сразу после отзыва не должен попадать под неё.
func init() {
	jwt.TimePrecision = time.Microsecond
}

// CustomClaims описывает данные сессии, хранящиеся в JWT.
//
// Subject - идентификатор учётной записи, ID (jti) - идентификатор сессии,
// по которому сессию можно аннулировать. Роль в токен не кладётся:
// она читается из профиля на каждом запросе.
type CustomClaims struct {
	jwt.RegisteredClaims
}

// AccountID возвращает идентификатор учётной записи.
func (c *CustomClaims) AccountID() string {
	return c.Subject
}

// GenerateToken создает JWT токен для accountID, подписывая его секретным ключом.
//
// Время жизни токена определяется полем tokenTTL.
func (j *MakerImpl) GenerateToken(accountID string) (string, *CustomClaims, error) {
	const op = "jwt.GenerateToken"
	if accountID == "" {
		return "", nil, fmt.Errorf("%s: empty account id", op)
	}
	now := j.now()
	claims := &CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return signed, claims, nil
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("missing subject or jti"))
	}
	return claims, nil
}
