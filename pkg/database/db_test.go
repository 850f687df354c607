package database

import (
	"errors"
	"fmt"
	"testing"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysqldrv.MySQLError{Number: 1062, Message: "Duplicate entry 'ABCD-EFGH' for key 'uk_coupon_code'"}
	assert.True(t, IsDuplicateKey(dup))
	assert.True(t, IsDuplicateKey(fmt.Errorf("insert coupons: %w", dup)))
	assert.False(t, IsDuplicateKey(&mysqldrv.MySQLError{Number: 1213}))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
	assert.False(t, IsDuplicateKey(nil))
}
