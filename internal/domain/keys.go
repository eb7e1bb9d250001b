package domain

// KeyPrefix namespaces all maya keys in the shared Redis instance.
const KeyPrefix = "maya:"
