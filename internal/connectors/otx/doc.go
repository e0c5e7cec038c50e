// Package otx implements the AlienVault OTX pulse feed adapter.
//
// OTX groups indicators inside pulses (threat reports). The adapter pages
// through the activity and subscribed pulse feeds by following the server's
// next URL, flattening every pulse indicator into a raw record. Pulse tags
// become labels, and indicators without their own timestamps inherit the
// pulse's created and modified times.
package otx
