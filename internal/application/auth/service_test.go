package auth

import (
	"testing"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPrincipal_Nil(t *testing.T) {
	p, err := VerifyPrincipal(nil)
	assert.Nil(t, p)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyPrincipal_WrongShape(t *testing.T) {
	p, err := VerifyPrincipal("0xowner")
	assert.Nil(t, p)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyPrincipal_NoAddress(t *testing.T) {
	p, err := VerifyPrincipal(map[string]interface{}{"account_id": "x", "role": "member"})
	assert.Nil(t, p)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyPrincipal_Valid(t *testing.T) {
	p, err := VerifyPrincipal(map[string]interface{}{
		"account_id": "550e8400-e29b-41d4-a716-446655440000",
		"address":    "0xowner",
		"role":       "member",
	})
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", p.AccountID)
	assert.Equal(t, "0xowner", p.Address)
	assert.Equal(t, "member", p.Role)
}

func TestCreateAccountAndLogin(t *testing.T) {
	db := testutil.NewDB(t)

	a, err := CreateAccount(db, "0xowner", "s3cret!pass", domain.RoleMember)
	require.NoError(t, err)
	assert.NotEmpty(t, a.PasswordHash)
	assert.NotEqual(t, "s3cret!pass", a.PasswordHash)

	got, err := Login(db, LoginInput{Address: "0xowner", Password: "s3cret!pass"})
	require.NoError(t, err)
	assert.Equal(t, a.AccountID, got.AccountID)

	_, err = Login(db, LoginInput{Address: "0xowner", Password: "wrong!pass1"})
	assert.Equal(t, ErrIncorrectPassword, err)
	_, err = Login(db, LoginInput{Address: "0xnobody", Password: "s3cret!pass"})
	assert.Equal(t, ErrUnknownAccount, err)
	_, err = Login(db, LoginInput{Address: "0xowner"})
	assert.Equal(t, ErrAddressPasswordRequired, err)

	finder := &GormAccountFinder{DB: db}
	got, err = finder.FindByAddressAndPassword("0xowner", "s3cret!pass")
	require.NoError(t, err)
	assert.Equal(t, "0xowner", got.Address)
}

func TestCreateAccount_Rejects(t *testing.T) {
	db := testutil.NewDB(t)

	_, err := CreateAccount(db, "0xowner", "short", domain.RoleMember)
	assert.Equal(t, ErrInvalidAccount, err)
	_, err = CreateAccount(db, "0xowner", "s3cret!pass", "superuser")
	assert.Equal(t, ErrInvalidAccount, err)
	_, err = CreateAccount(db, "bad address", "s3cret!pass", domain.RoleMember)
	assert.Equal(t, ErrInvalidAccount, err)

	_, err = CreateAccount(db, "0xowner", "s3cret!pass", domain.RoleMember)
	require.NoError(t, err)
	_, err = CreateAccount(db, "0xowner", "0ther!pass", domain.RoleMember)
	assert.Equal(t, ErrAccountExists, err)
}

func TestEnsureAdmin(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, EnsureAdmin(db, testutil.Admin, ""))
	var n int64
	require.NoError(t, db.Model(&domain.Account{}).Count(&n).Error)
	assert.Zero(t, n)

	require.NoError(t, EnsureAdmin(db, testutil.Admin, "adm1n!pass"))
	require.NoError(t, EnsureAdmin(db, testutil.Admin, "adm1n!pass"))
	require.NoError(t, db.Model(&domain.Account{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	a, err := Login(db, LoginInput{Address: testutil.Admin, Password: "adm1n!pass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, a.Role)
}
