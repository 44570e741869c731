package ratelimit

// The scripts below are the only writers of limiter state. Each one
// performs a full read-modify-write cycle server-side so that any
// number of concurrent clients stay consistent without client locks.

const fixedWindowScript = `
local key    = KEYS[1]             -- counter for the current window
local window = tonumber(ARGV[1])   -- window size in milliseconds
local rate   = tonumber(ARGV[2])   -- quota units consumed by this call

local current = redis.call("INCRBY", key, rate)
if current == rate then
  -- First hit in this window starts the expiry clock. The TTL must not
  -- be refreshed on later increments, that would slide the window.
  redis.call("PEXPIRE", key, window)
end

return current
`

const slidingWindowScript = `
local current_key  = KEYS[1]            -- counter for the current window
local previous_key = KEYS[2]            -- counter for the previous window
local window       = tonumber(ARGV[1])  -- window size in milliseconds
local rate         = tonumber(ARGV[2])  -- quota units consumed by this call

local current = redis.call("INCRBY", current_key, rate)
if current == rate then
  -- Long enough to stay readable as the "previous" window, plus slack.
  redis.call("PEXPIRE", current_key, window * 2 + 1000)
end

local previous = tonumber(redis.call("GET", previous_key)) or 0

return {current, previous}
`

const tokenBucketScript = `
local key         = KEYS[1]
local max_tokens  = tonumber(ARGV[1])
local interval    = tonumber(ARGV[2])   -- refill interval in milliseconds
local refill_rate = tonumber(ARGV[3])   -- tokens regained per interval
local now         = tonumber(ARGV[4])   -- current unix time in milliseconds
local rate        = tonumber(ARGV[5])   -- tokens consumed by this call

local bucket = redis.call("HMGET", key, "tokens", "updated_at")

local tokens     = max_tokens
local updated_at = now
if bucket[1] then
  tokens     = tonumber(bucket[1])
  updated_at = tonumber(bucket[2])
end

local refilled = (now - updated_at) * refill_rate / interval
tokens = math.min(max_tokens, tokens + refilled)

local allowed = 0
if tokens >= rate then
  allowed = 1
  tokens = tokens - rate
end

-- Persist even on deny: the refill clock has to advance on rejections,
-- otherwise a burst after repeated denials would refill twice.
-- Tokens are stored as a string to keep the fractional part, Lua
-- replies coerce numbers to integers.
redis.call("HMSET", key, "tokens", tostring(tokens), "updated_at", now)

return {allowed, tostring(tokens)}
`

const tokenBucketPeekScript = `
local bucket = redis.call("HMGET", KEYS[1], "tokens", "updated_at")
if bucket[1] == false then
  return {}
end
return {bucket[1], bucket[2]}
`
