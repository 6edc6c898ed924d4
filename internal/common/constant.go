package common

// AuthorizationHeaderName carries "Bearer <access token>" on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// UpsertHeaderName asks the storage API to overwrite an existing object.
const UpsertHeaderName = "x-upsert"

// AvatarBucket is the storage bucket holding profile pictures.
const AvatarBucket = "avatars"

// OTPLength is the number of digits in an emailed one-time code.
const OTPLength = 6
