// Package influxdb records characteristic history in InfluxDB v2.
//
// Every characteristic read and write becomes a point in the
// "characteristic" measurement, tagged with the accessory serial, name,
// kind, characteristic and operation. Writes are batched and non-blocking.
package influxdb
