package database

// Timestamps are unix seconds in every table so both drivers scan them the same way.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    credits INTEGER NOT NULL DEFAULT 0,
    sub_tier TEXT NOT NULL DEFAULT 'BASIC',
    sub_expires_at INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS personas (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    bio TEXT NOT NULL DEFAULT '',
    appearance TEXT NOT NULL DEFAULT '{}',
    tags TEXT NOT NULL DEFAULT '[]',
    base_prices TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    persona_id INTEGER NOT NULL REFERENCES personas(id),
    role TEXT NOT NULL,
    body TEXT NOT NULL,
    media_offer_id INTEGER,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS media_offers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    persona_id INTEGER NOT NULL REFERENCES personas(id),
    kind TEXT NOT NULL,
    quality TEXT NOT NULL,
    duration INTEGER NOT NULL DEFAULT 0,
    price_credits INTEGER NOT NULL,
    asset_url TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS media_access (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    media_id INTEGER NOT NULL REFERENCES media_offers(id),
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    amount INTEGER NOT NULL,
    reason TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    status TEXT NOT NULL,
    params TEXT NOT NULL,
    output_url TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs (status, id);

CREATE TABLE IF NOT EXISTS credit_packs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL,
    price_minor_units INTEGER NOT NULL,
    credits INTEGER NOT NULL,
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS promo_codes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    code TEXT NOT NULL UNIQUE,
    credits INTEGER NOT NULL,
    max_uses INTEGER NOT NULL,
    uses INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS promo_redemptions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    promo_code_id INTEGER NOT NULL REFERENCES promo_codes(id),
    created_at INTEGER NOT NULL,
    UNIQUE (account_id, promo_code_id)
);

CREATE TABLE IF NOT EXISTS payments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id INTEGER NOT NULL REFERENCES accounts(id),
    pack_id INTEGER,
    tier TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL,
    provider_charge_id TEXT NOT NULL,
    currency TEXT NOT NULL DEFAULT '',
    amount INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    raw_payload TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    UNIQUE (provider, provider_charge_id)
);
`

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    credits INT NOT NULL DEFAULT 0,
    sub_tier VARCHAR(16) NOT NULL DEFAULT 'BASIC',
    sub_expires_at BIGINT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS personas (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    slug VARCHAR(128) NOT NULL UNIQUE,
    name VARCHAR(255) NOT NULL,
    bio TEXT NOT NULL,
    appearance TEXT NOT NULL,
    tags TEXT NOT NULL,
    base_prices TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    persona_id BIGINT NOT NULL,
    role VARCHAR(16) NOT NULL,
    body TEXT NOT NULL,
    media_offer_id BIGINT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(id),
    FOREIGN KEY (persona_id) REFERENCES personas(id)
);

CREATE TABLE IF NOT EXISTS media_offers (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    persona_id BIGINT NOT NULL,
    kind VARCHAR(16) NOT NULL,
    quality VARCHAR(16) NOT NULL,
    duration INT NOT NULL DEFAULT 0,
    price_credits INT NOT NULL,
    asset_url VARCHAR(1024) NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(id),
    FOREIGN KEY (persona_id) REFERENCES personas(id)
);

CREATE TABLE IF NOT EXISTS media_access (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    media_id BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(id),
    FOREIGN KEY (media_id) REFERENCES media_offers(id)
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    amount INT NOT NULL,
    reason VARCHAR(64) NOT NULL,
    metadata TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS jobs (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    status VARCHAR(16) NOT NULL,
    params TEXT NOT NULL,
    output_url VARCHAR(1024) NOT NULL DEFAULT '',
    error TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    KEY idx_jobs_status (status, id),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS credit_packs (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL,
    currency VARCHAR(8) NOT NULL,
    price_minor_units INT NOT NULL,
    credits INT NOT NULL,
    is_active TINYINT(1) NOT NULL DEFAULT 1,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS promo_codes (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    code VARCHAR(64) NOT NULL UNIQUE,
    credits INT NOT NULL,
    max_uses INT NOT NULL,
    uses INT NOT NULL DEFAULT 0,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS promo_redemptions (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    promo_code_id BIGINT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE KEY uniq_account_promo (account_id, promo_code_id),
    FOREIGN KEY (account_id) REFERENCES accounts(id),
    FOREIGN KEY (promo_code_id) REFERENCES promo_codes(id)
);

CREATE TABLE IF NOT EXISTS payments (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    account_id BIGINT NOT NULL,
    pack_id BIGINT NULL,
    tier VARCHAR(16) NOT NULL DEFAULT '',
    provider VARCHAR(64) NOT NULL,
    provider_charge_id VARCHAR(255) NOT NULL,
    currency VARCHAR(8) NOT NULL DEFAULT '',
    amount INT NOT NULL DEFAULT 0,
    status VARCHAR(16) NOT NULL,
    raw_payload TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    UNIQUE KEY uniq_provider_charge (provider, provider_charge_id),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);
`

// columnMigrations are applied after the base schema, in order. Columns are only ever added.
var columnMigrations = []columnMigration{
	{Table: "credit_packs", Column: "stripe_price_id", SQLiteType: "TEXT NOT NULL DEFAULT ''", MySQLType: "VARCHAR(255) NOT NULL DEFAULT ''"},
}
