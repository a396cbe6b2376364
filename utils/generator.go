package utils

import (
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/chineduopara/coursepay/models"
)

const referenceSuffixLength = 12
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePaymentReference produces a unique merchant reference of the form
// PAY-XXXXXXXXXXXX, retrying until the candidate is unused.
func GeneratePaymentReference(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, referenceSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		reference := "PAY-" + string(b)

		var payment models.Payment
		err := tx.Where("reference = ?", reference).First(&payment).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return reference, nil
			}
			return "", err
		}
	}
}
