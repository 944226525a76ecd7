package utils

// StreamMaxLen is the maximum length of the Redis stream of plantation readings
const StreamMaxLen int64 = 100
