package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ergoprover/pkg/address"
	"ergoprover/pkg/keys"
)

func TestPrintAddresses(t *testing.T) {
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	assert.NoError(t, printAddresses(mnemonic, "", 0, 2, address.Testnet, false))
	assert.NoError(t, printAddresses("", "", 128, 1, address.Mainnet, false))
}

func TestPrintAddressesErrors(t *testing.T) {
	err := printAddresses("abandon abandon abandon", "", 0, 1, address.Mainnet, false)
	assert.ErrorIs(t, err, keys.ErrInvalidMnemonic)

	assert.Error(t, printAddresses("", "", 100, 1, address.Mainnet, false))
}
