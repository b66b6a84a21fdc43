package redis

const (
	// incrementCounterScript atomically rolls a counter over to the
	// given day and increments it. A counter stored under a different
	// day restarts at 1; otherwise the count is incremented in place.
	// Returns the new count.
	incrementCounterScript = `
local counter_key = KEYS[1]   -- lingora:counter:{userKey}/{featureKey}

local user_key = ARGV[1]
local feature_key = ARGV[2]
local day = ARGV[3]
local ttl_seconds = tonumber(ARGV[4])

local stored_day = redis.call('HGET', counter_key, 'day')

local count
if stored_day == day then
  count = redis.call('HINCRBY', counter_key, 'count', 1)
else
  -- New day (or new counter): restart at 1
  redis.call('HSET', counter_key,
    'user_key', user_key,
    'feature_key', feature_key,
    'day', day,
    'count', 1
  )
  count = 1
end

if ttl_seconds > 0 then
  redis.call('EXPIRE', counter_key, ttl_seconds)
end

return count
`
)

// recordTTLSeconds bounds how long stale daily records linger. Stale
// records already read as zero; the TTL is hygiene only. 90 days.
const recordTTLSeconds = 90 * 24 * 60 * 60
