package common

import (
	"github.com/google/uuid"
)

// ServiceName 服務名稱，寫入每一筆日誌
const ServiceName = "allergen-scanner"

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}
