package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ergoprover/pkg/address"
	"ergoprover/pkg/keys"
)

func main() {
	// Configure logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Parse flags
	mnemonic := flag.String("mnemonic", "", "Existing mnemonic (a new one is generated if empty)")
	password := flag.String("password", "", "Mnemonic password")
	bits := flag.Int("bits", 256, "Entropy size of a generated mnemonic")
	count := flag.Uint("count", 1, "Number of EIP-3 addresses to print")
	network := flag.String("network", "mainnet", "Address network: mainnet or testnet")
	pre1627 := flag.Bool("pre1627", false, "Use the legacy child key derivation")
	flag.Parse()

	net, err := address.ParseNetwork(*network)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid network")
	}

	if err := printAddresses(*mnemonic, *password, *bits, uint32(*count), net, *pre1627); err != nil {
		log.Fatal().Err(err).Msg("Failed to derive addresses")
	}
}

// printAddresses holds the master key so it is wiped before any exit
func printAddresses(mnemonic, password string, bits int, count uint32, net address.NetworkType, pre1627 bool) error {
	generated := false
	if mnemonic == "" {
		var err error
		mnemonic, err = keys.NewMnemonic(bits)
		if err != nil {
			return err
		}
		generated = true
	}

	master, err := keys.MasterSecretFromMnemonic(mnemonic, password, pre1627)
	if err != nil {
		return err
	}
	defer master.Zero()

	if generated {
		fmt.Println("Generated new mnemonic")
		fmt.Println("----------------------")
		fmt.Println(mnemonic)
		fmt.Println()
	}

	fmt.Printf("EIP-3 addresses (%s)\n", net)
	for i := uint32(0); i < count; i++ {
		path, err := keys.EIP3Path(i)
		if err != nil {
			return err
		}
		sk, err := keys.Derive(master, path)
		if err != nil {
			return err
		}
		addr := address.FromPublicKey(net, sk.PublicKey())
		sk.Zero()
		fmt.Printf("%-20s %s\n", path, addr)
	}
	return nil
}
