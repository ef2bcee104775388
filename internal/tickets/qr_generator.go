package tickets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/skip2/go-qrcode"

	"transit-ticketing/internal/models"
)

var ErrBookingNotConfirmed = errors.New("boarding pass requires a confirmed booking")

// boardingPass is the payload embedded in the QR code; encrypted so gate
// scanners with the shared secret can verify it offline.
type boardingPass struct {
	BookingID  string             `json:"booking_id"`
	ScheduleID string             `json:"schedule_id"`
	UserID     string             `json:"user_id"`
	Seats      []models.BookingSeat `json:"seats"`
}

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// GenerateBoardingPass renders an encrypted QR code for a confirmed booking.
func (g *Generator) GenerateBoardingPass(booking *models.Booking, seats []models.BookingSeat) ([]byte, error) {
	if booking.Status != models.BookingConfirmed {
		return nil, ErrBookingNotConfirmed
	}

	data, err := json.Marshal(boardingPass{
		BookingID:  booking.BookingID,
		ScheduleID: booking.ScheduleID,
		UserID:     booking.UserID,
		Seats:      seats,
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
