package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/joanmiespada/truly-blockchain/internal/chains"
	"github.com/joanmiespada/truly-blockchain/internal/models"
	"github.com/joanmiespada/truly-blockchain/internal/secrets"
	"github.com/joanmiespada/truly-blockchain/internal/services"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	// Command line flags
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var enableLog = flag.Bool("log", false, "Enable logging output")
	var mintAsset = flag.String("mint", "", "Mint the given asset ID")
	var getAsset = flag.String("get", "", "Read minted content for the given asset ID")
	var userID = flag.String("user", "", "User ID owning the asset (mint only)")
	var hashFile = flag.String("hash", "", "Content hash to mint (mint only)")
	var hashAlgorithm = flag.String("hash-algorithm", "MD5", "Hash algorithm of the content hash")
	var price = flag.Uint64("price", 0, "Price in the chain's base unit, 0 means unset")
	var counter = flag.Uint64("counter", 0, "Attempt counter, informational only")
	flag.Parse()

	// Disable logging by default
	if !*enableLog {
		log.SetOutput(io.Discard)
	}

	if *showVersion {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.Printf("Truly Blockchain Minter\n")
		log.Printf("Version: %s\n", Version)
		log.Printf("Commit: %s\n", CommitHash)
		log.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.Printf("Truly Blockchain Minter\n\n")
		log.Printf("Usage: %s [options]\n\n", os.Args[0])
		log.Printf("Options:\n")
		log.Printf("  --version            Show version information\n")
		log.Printf("  --help               Show this help message\n")
		log.Printf("  --log                Enable logging output\n")
		log.Printf("  --mint <asset-id>    Mint the asset's content hash\n")
		log.Printf("  --get <asset-id>     Read minted content back from the chain\n")
		log.Printf("  --user <user-id>     Owner of the asset (required with --mint)\n")
		log.Printf("  --hash <hex>         Content hash (required with --mint)\n")
		log.Printf("  --hash-algorithm <a> Hash algorithm, defaults to MD5\n")
		log.Printf("  --price <n>          Price in the chain's base unit\n\n")
		log.Printf("Environment:\n")
		log.Printf("  DATABASE_URL         Postgres DSN, takes precedence over DATABASE_PATH\n")
		log.Printf("  DATABASE_PATH        SQLite path, defaults to ~/truly-blockchain.db\n")
		log.Printf("  CONTRACT_ID          Contract row to mint against\n")
		log.Printf("  MASTER_KEY_ID        Secret name of the wallet master key\n")
		log.Printf("  KEY_SOURCE           env (default) or gcp\n")
		log.Printf("  GCP_PROJECT_ID       Project for KEY_SOURCE=gcp\n")
		return
	}

	// loads .env if present, real env vars win
	_ = godotenv.Load()

	db, err := openDatabase()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	mintSvc, err := buildMintService(db)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
		log.Fatal("Failed to initialize mint service:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *mintAsset != "":
		assetID, err := uuid.Parse(*mintAsset)
		if err != nil {
			fatalf("invalid asset id %q: %v", *mintAsset, err)
		}
		var pricePtr *uint64
		if *price > 0 {
			pricePtr = price
		}
		tx, err := mintSvc.TryMint(ctx, services.TryMintRequest{
			AssetID:       assetID,
			UserID:        *userID,
			Price:         pricePtr,
			Hash:          *hashFile,
			HashAlgorithm: *hashAlgorithm,
			Counter:       *counter,
		})
		if err != nil {
			fatalf("mint failed: %v", err)
		}
		printJSON(tx)

	case *getAsset != "":
		assetID, err := uuid.Parse(*getAsset)
		if err != nil {
			fatalf("invalid asset id %q: %v", *getAsset, err)
		}
		content, err := mintSvc.Get(ctx, assetID)
		if err != nil {
			fatalf("get failed: %v", err)
		}
		printJSON(content)

	default:
		fatalf("nothing to do: pass --mint or --get (see --help)")
	}
}

func openDatabase() (services.DBService, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return services.NewPostgresDBService(dsn)
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		homePath, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dbPath = homePath + "/truly-blockchain.db"
	}
	return services.NewSqliteDBService(dbPath)
}

// buildMintService wires the adapter matching the configured contract's
// chain variant.
func buildMintService(db services.DBService) (services.MintService, error) {
	chainSvc := services.NewChainService(db.GetDB())
	txSvc := services.NewMintTxService(db.GetDB())
	walletSvc := services.NewWalletService(db.GetDB())

	contractID, err := strconv.ParseUint(os.Getenv("CONTRACT_ID"), 10, 32)
	if err != nil {
		return nil, err
	}
	contract, err := chainSvc.GetContractByID(uint(contractID))
	if err != nil {
		return nil, err
	}

	masterKeyID := os.Getenv("MASTER_KEY_ID")
	cipher := secrets.NewAESCipher(keySource())

	var adapter chains.Adapter
	switch contract.Chain.ChainType {
	case models.ChainTypeSolana:
		adapter, err = chains.NewSolanaAdapter(&contract.Chain, contract, cipher, masterKeyID)
	default:
		adapter, err = chains.NewEvmAdapter(&contract.Chain, contract, cipher, masterKeyID)
	}
	if err != nil {
		return nil, err
	}

	return services.NewMintService(adapter, txSvc, walletSvc), nil
}

func keySource() secrets.KeySource {
	if os.Getenv("KEY_SOURCE") == "gcp" {
		return secrets.SecretManagerKeySource{ProjectID: os.Getenv("GCP_PROJECT_ID")}
	}
	return secrets.EnvKeySource{}
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fatalf("failed to encode output: %v", err)
	}
}

func fatalf(format string, args ...any) {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)
	log.Fatalf(format, args...)
}
