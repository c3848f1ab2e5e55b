// Package vision holds the capabilities the detection core depends on:
// frame sources, age estimators and the one-shot model loaders that must
// succeed before any estimate is requested.
//
// Estimators are looked up by provider name in a Registry. The built-in
// providers are "openai" and "gemini" (hosted vision models asked for a JSON
// age estimate) and "websocket" (a face-api style service that needs its
// weight manifests fetched before it is dialed).
package vision
