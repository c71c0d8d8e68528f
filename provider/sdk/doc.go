// Package sdk adapts the official openai-go client to provider.Provider.
// It carries the exact same external contract as the direct-HTTP vendor
// packages and is registered as a higher-priority discovery tier when
// enabled in configuration.
package sdk
