package checksum

import "hash/crc32"

// CalculateCheckSum returns the CRC-32 (IEEE) of data, the checksum chunkservers
// keep per chunk part.
func CalculateCheckSum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
