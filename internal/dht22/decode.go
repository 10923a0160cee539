package dht22

// dataBits is the number of pulse-encoded bits per transmission: four data
// bytes plus the checksum byte.
const dataBits = 40

// Decode converts a pulse train into a reading. It performs no I/O and is
// deterministic, so it can be tested against literal trains.
//
// The busy-wait counts depend on the CPU clock and whatever else the machine
// was doing during the capture, so there is no fixed short/long boundary.
// Instead the threshold is the integer mean of the 40 data-bit high phases of
// this very train: a high phase at or above the mean is a 1, below it a 0.
func Decode(train PulseTrain) (Reading, error) {
	sum := 0
	for i := 3; i < TrainLen; i += 2 {
		sum += int(train[i])
	}
	threshold := sum / dataBits

	var data [5]byte
	for i := 3; i < TrainLen; i += 2 {
		index := (i - 3) / 16
		data[index] <<= 1
		if int(train[i]) >= threshold {
			data[index] |= 1
		}
	}

	if data[4] != data[0]+data[1]+data[2]+data[3] {
		return Reading{}, ErrChecksum
	}

	humidity := float64(int(data[0])*256+int(data[1])) / 10

	raw := int(data[2]&0x7f)*256 + int(data[3])
	temperature := float64(raw) / 10
	if data[2]&0x80 != 0 {
		temperature = -temperature
	}

	return Reading{Temperature: temperature, Humidity: humidity}, nil
}
