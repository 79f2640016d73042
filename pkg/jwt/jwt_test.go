package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestGenerateParse_ConservaEmpleadoYRol(t *testing.T) {
	tok, err := Generate(testSecret, "e-1", RoleWarehouse, "flota-api-test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	employeeID, role, err := Parse(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "e-1", employeeID)
	assert.Equal(t, RoleWarehouse, role)
}

func TestParse_Rechazos(t *testing.T) {
	expired, err := Generate(testSecret, "e-1", RoleAdmin, "flota-api-test", -1)
	require.NoError(t, err)
	_, _, err = Parse(testSecret, expired)
	assert.Error(t, err, "token expirado")

	valid, err := Generate(testSecret, "e-1", RoleAdmin, "flota-api-test", 60)
	require.NoError(t, err)
	_, _, err = Parse("otro-secret", valid)
	assert.Error(t, err, "secret incorrecto")

	_, _, err = Parse(testSecret, "no.es.jwt")
	assert.Error(t, err)
}
