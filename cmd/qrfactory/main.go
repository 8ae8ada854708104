package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talkincode/qrfactory/config"
	"github.com/talkincode/qrfactory/internal/adminapi"
	"github.com/talkincode/qrfactory/internal/app"
	"github.com/talkincode/qrfactory/internal/bulksync"
	"github.com/talkincode/qrfactory/internal/registry"
	"github.com/talkincode/qrfactory/internal/sheet"
	"github.com/talkincode/qrfactory/internal/webserver"
)

var (
	version = "dev"
	cfgFile string
	port    int
	actor   string
)

var rootCmd = &cobra.Command{
	Use:           "qrfactory",
	Short:         "QR product code registry",
	Long:          `Embedded admin server that issues product codes, tracks customers and staff, and hands out single-use login tokens.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP server",
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|products.csv>",
	Short: "Apply a workbook or product CSV to the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx|products.csv>",
	Short: "Write the registry to a workbook or product CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Drop and recreate every table",
	RunE:  runInitdb,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml)")
	serveCmd.Flags().IntVarP(&port, "port", "p", -1, "listen port, 0 picks a free port")
	importCmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit log")
	rootCmd.AddCommand(serveCmd, importCmd, exportCmd, initdbCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func startApp() (*app.Application, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		return nil, err
	}
	return application, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	application, err := startApp()
	if err != nil {
		return err
	}
	defer application.Release()

	cfg := application.Config()
	if port >= 0 {
		cfg.Web.Port = port
	}

	adminapi.Init()
	server := webserver.NewAdminServer(cfg.Web, application)
	if err := server.Listen(); err != nil {
		return err
	}
	// the desktop shell reads the bound address from stdout
	fmt.Printf("QR Factory listening on http://%s\n", server.Addr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		zap.L().Info("shutting down admin server")
		return server.Shutdown(context.Background())
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	application, err := startApp()
	if err != nil {
		return err
	}
	defer application.Release()

	file := args[0]
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	source := filepath.Base(file)
	var batches []bulksync.Batch
	if strings.EqualFold(filepath.Ext(file), ".csv") {
		rows, err := sheet.ReadProductsCSV(f)
		if err != nil {
			return err
		}
		batches = []bulksync.Batch{{Kind: bulksync.KindProducts, Source: source, Rows: rows}}
	} else {
		batches, err = sheet.ReadWorkbook(f, source)
		if err != nil {
			return err
		}
	}

	for _, batch := range batches {
		n, err := application.Sync().ApplyBatch(cmd.Context(), batch, actor)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d of %d rows imported\n", batch.Kind, n, len(batch.Rows))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	application, err := startApp()
	if err != nil {
		return err
	}
	defer application.Release()

	file := args[0]
	out, err := os.Create(file)
	if err != nil {
		return err
	}
	defer out.Close()

	if strings.EqualFold(filepath.Ext(file), ".csv") {
		rows, err := application.Registry().ListProducts(cmd.Context(), registry.ProductFilter{})
		if err != nil {
			return err
		}
		return sheet.WriteProductsCSV(out, rows)
	}
	return sheet.Export(cmd.Context(), application.Registry(), out)
}

func runInitdb(_ *cobra.Command, _ []string) error {
	application, err := startApp()
	if err != nil {
		return err
	}
	defer application.Release()
	if err := application.InitDb(); err != nil {
		return err
	}
	zap.L().Info("database initialized")
	return nil
}
