package models

import (
	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Product{}, &Customer{},
		&Sale{}, &SaleItem{},
		&Expense{}, &CashMovement{},
		&SyncQueueItem{},
	)
	utils.ErrorPanic(err)
}
