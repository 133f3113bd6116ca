package services

import (
	"time"

	"go.uber.org/zap"

	"PIX-Group-Bot/internal/db"
	"PIX-Group-Bot/internal/logger"
)

// ExpirePendingPayments marks overdue pending charges as expired without
// waiting for a gateway callback. The guarded update means a "paid" callback
// racing this sweep resolves to exactly one terminal state.
func ExpirePendingPayments() {
	count, err := db.ExpireOverduePayments(time.Now().Unix())
	if err != nil {
		logger.Error("failed to expire overdue payments", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("expired overdue payments", zap.Int64("count", count))
	}
}
