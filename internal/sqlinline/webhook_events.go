package sqlinline

const QInsertPaymentWebhookEvent = `--sql 5c0d82f4-a7e9-4361-b08d-9f24c6e1a573
insert into payment_webhook_events (id, event_type, checkout_id, payload, created_at)
values (gen_random_uuid(), $1::text, $2::text, $3::jsonb, now());
`
