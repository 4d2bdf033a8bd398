package config

// Embedded board descriptions, keyed by board name.

const cfgT32CM11EVK = `{
  "variant": "t32cm11",
  "uarts": [
    {
      "name": "console",
      "id": 0,
      "tx": 17,
      "rx": 16,
      "baud": 115200,
      "interrupts": true,
      "mode": "lines",
      "idle_flush_ms": 100
    },
    {
      "name": "modem",
      "id": 1,
      "tx": 28,
      "rx": 29,
      "rts": 20,
      "cts": 21,
      "baud": 500000,
      "flow_control": true,
      "interrupts": true,
      "trigger": 8,
      "rx_dma": 256,
      "tx_dma": true,
      "priority": 2,
      "mode": "bytes",
      "max_frame": 128
    }
  ]
}`

const cfgT32CZ20EVK = `{
  "variant": "t32cz20",
  "uarts": [
    {
      "name": "console",
      "id": 0,
      "tx": 17,
      "rx": 16,
      "baud": 115200,
      "interrupts": true,
      "mode": "lines",
      "idle_flush_ms": 100
    },
    {
      "name": "sensor",
      "id": 2,
      "tx": 30,
      "rx": 31,
      "baud": 9600,
      "clock": "rco1m",
      "parity": "even",
      "interrupts": true,
      "trigger": 4,
      "run_when_sleeping": true,
      "sleep_clock": "rco32k",
      "sleep_baud": 2400,
      "wake_on_interrupt": true,
      "rx_queue": 64,
      "mode": "bytes",
      "max_frame": 32
    }
  ]
}`

var embeddedConfigs = map[string][]byte{
	"t32cm11-evk": []byte(cfgT32CM11EVK),
	"t32cz20-evk": []byte(cfgT32CZ20EVK),
}
