package gcs

import (
	"context"
	"fmt"

	"github.com/dvloznov/rent-ledger/internal/categorizer"
	"github.com/dvloznov/rent-ledger/internal/logger"
)

const vendorMapContentType = "application/yaml"

// LoadVendorMap returns the vendor map stored at uri. An empty uri yields the
// built-in map.
func LoadVendorMap(ctx context.Context, objects ObjectStore, uri string) (*categorizer.VendorMap, error) {
	if uri == "" {
		return categorizer.DefaultVendorMap(), nil
	}

	data, err := objects.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("LoadVendorMap: %w", err)
	}
	vm, err := categorizer.ParseVendorMapYAML(data)
	if err != nil {
		return nil, fmt.Errorf("LoadVendorMap: %s: %w", uri, err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("uri", uri).Int("vendors", vm.Len()).Msg("Loaded vendor map")
	return vm, nil
}

// PublishVendorMap validates a YAML vendor map and uploads it to uri.
func PublishVendorMap(ctx context.Context, objects ObjectStore, uri string, data []byte) (int, error) {
	vm, err := categorizer.ParseVendorMapYAML(data)
	if err != nil {
		return 0, fmt.Errorf("PublishVendorMap: %w", err)
	}
	if err := objects.Put(ctx, uri, data, vendorMapContentType); err != nil {
		return 0, fmt.Errorf("PublishVendorMap: %w", err)
	}
	return vm.Len(), nil
}
